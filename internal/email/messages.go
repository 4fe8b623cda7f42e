package email

import (
	"fmt"
	"strings"
)

// Message is a rendered subject/body pair ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// BookingDetails carries the fields shared by booking-related emails.
type BookingDetails struct {
	UserName    string
	ServiceName string
	Date        string
	StartTime   string
}

func BuildBookingConfirmation(details BookingDetails) Message {
	serviceName := strings.TrimSpace(details.ServiceName)
	if serviceName == "" {
		serviceName = "レッスン"
	}

	lines := []string{
		greeting(details.UserName),
		"",
		"ご予約を受け付けました。",
		"",
		fmt.Sprintf("クラス: %s", serviceName),
		fmt.Sprintf("日付: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("時間: %s", strings.TrimSpace(details.StartTime)),
		"",
		"ご来店をお待ちしております。",
	}

	return Message{
		Subject: fmt.Sprintf("ご予約確認 - %s", serviceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildBookingCancellation(details BookingDetails) Message {
	serviceName := strings.TrimSpace(details.ServiceName)
	if serviceName == "" {
		serviceName = "レッスン"
	}

	lines := []string{
		greeting(details.UserName),
		"",
		"以下のご予約をキャンセルしました。",
		"",
		fmt.Sprintf("クラス: %s", serviceName),
		fmt.Sprintf("日付: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("時間: %s", strings.TrimSpace(details.StartTime)),
		"",
		"またのご利用をお待ちしております。",
	}

	return Message{
		Subject: fmt.Sprintf("キャンセル確認 - %s", serviceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func greeting(userName string) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		return "お客様"
	}
	return fmt.Sprintf("%s 様", name)
}
