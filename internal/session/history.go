package session

import "realtychat/internal/model"

// AppendHistory adds a message and keeps only the most recent limit entries.
// A non-positive limit keeps everything.
func AppendHistory(history []model.Message, role, content string, limit int) []model.Message {
	history = append(history, model.Message{Role: role, Content: content})
	return TruncateHistory(history, limit)
}

// TruncateHistory drops the oldest messages beyond limit
func TruncateHistory(history []model.Message, limit int) []model.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	out := make([]model.Message, limit)
	copy(out, history[len(history)-limit:])
	return out
}
