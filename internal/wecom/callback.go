package wecom

import (
	"encoding/xml"
	"fmt"
)

// Envelope is the outer XML body of a POST callback delivery. Only the
// Encrypt element matters; the rest is routing noise.
type Envelope struct {
	XMLName xml.Name `xml:"xml"`
	ToUser  string   `xml:"ToUserName"`
	AgentID string   `xml:"AgentID"`
	Encrypt string   `xml:"Encrypt"`
}

// ParseEnvelope decodes the outer callback body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}
	if env.Encrypt == "" {
		return nil, fmt.Errorf("callback body missing Encrypt element")
	}
	return &env, nil
}

// Message is the decrypted inner document of a message delivery.
type Message struct {
	XMLName    xml.Name `xml:"xml"`
	ToUserName string   `xml:"ToUserName"`
	FromUser   string   `xml:"FromUserName"`
	CreateTime int64    `xml:"CreateTime"`
	MsgType    string   `xml:"MsgType"`
	Content    string   `xml:"Content"`
	MsgID      int64    `xml:"MsgId"`
	AgentID    int      `xml:"AgentID"`
}

// ParseMessage decodes a decrypted inner payload.
func ParseMessage(payload []byte) (*Message, error) {
	var msg Message
	if err := xml.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("malformed inner message: %w", err)
	}
	return &msg, nil
}

// IsText reports whether the message carries plain text content.
func (m *Message) IsText() bool {
	return m.MsgType == "text"
}
