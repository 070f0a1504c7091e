package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// publishMail 把通知事件投递到消息队列。只在业务事务提交后调用，
// 投递失败只记日志，绝不影响已提交的业务结果。
func (h *Handler) publishMail(msg domain.MailMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("通知邮件序列化失败", "type", msg.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	err = h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		slog.Error("投递通知邮件失败", "type", msg.Type, "to", msg.To, "error", err)
	}
}

// formatShiftDate 邮件里统一用固定时区下的日期
func (h *Handler) formatShiftDate(shift *domain.Shift) string {
	return shift.Date.In(h.clock.Location()).Format("2006-01-02")
}

func commentOrDefault(comment *string) string {
	if comment == nil || *comment == "" {
		return "无备注"
	}
	return *comment
}
