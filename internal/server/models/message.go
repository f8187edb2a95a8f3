package models

import "time"

// Message is a stored message row.
type Message struct {
	ID           int64      `json:"id"`
	FromUserName string     `json:"from_username"`
	ToUserName   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// MessageDetail embeds both participants' public profiles.
type MessageDetail struct {
	ID       int64       `json:"id"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}

// SentMessage is an entry of a user's outbox.
type SentMessage struct {
	ID     int64       `json:"id"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
	ToUser UserSummary `json:"to_user"`
}

// ReceivedMessage is an entry of a user's inbox.
type ReceivedMessage struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
}

// ReadReceipt is returned by the mark-read operation.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
