package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeTag(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"high priority", `{"type":"high-priority","data":"x"}`, "high-priority"},
		{"unknown tag kept", `{"type":"urgent","data":"y"}`, "urgent"},
		{"missing type", `{"data":"z"}`, ""},
		{"numeric type", `{"type":7}`, ""},
		{"null type", `{"type":null}`, ""},
		{"array body", `["high-priority"]`, ""},
		{"string body", `"high-priority"`, ""},
		{"not json", `type=high-priority`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeTag([]byte(tt.body)))
		})
	}
}

func TestDecodeContent(t *testing.T) {
	content := DecodeContent([]byte(`{"type":"urgent","data":"y","n":2}`))

	m, ok := content.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "urgent", m["type"])
	assert.Equal(t, "y", m["data"])
	assert.Equal(t, float64(2), m["n"])
}

func TestDecodeContent_NonJSON(t *testing.T) {
	assert.Equal(t, "plain text", DecodeContent([]byte("plain text")))
}

func TestNewDeliveryRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := NewDeliveryRecord([]byte(`{"type":"high-priority","data":"x"}`), at)

	assert.Equal(t, at, record.Timestamp)
	assert.Empty(t, record.ID)
	assert.Equal(t, map[string]interface{}{"type": "high-priority", "data": "x"}, record.Content)
}

func TestDecodeContent_NumbersDecodeAsFloat64(t *testing.T) {
	content := DecodeContent([]byte(`{"type":"default","n":9007199254740993}`))

	m, ok := content.(map[string]interface{})
	require.True(t, ok)
	// integers beyond 2^53 lose precision
	assert.Equal(t, float64(9007199254740992), m["n"])
}
