package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirfoga/gamer/internal/api/storage"
)

// DecodeRunCursor parses a cursor produced by EncodeRunCursor; empty means first page
func DecodeRunCursor(cursorStr string) (*storage.RunCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	createdAt, runID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	nanos, err := strconv.ParseInt(createdAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run_id in cursor: %w", err)
	}

	return &storage.RunCursor{
		CreatedAt: time.Unix(0, nanos).UTC(),
		RunID:     runID,
	}, nil
}

// EncodeRunCursor builds an opaque, URL safe cursor
func EncodeRunCursor(cursor *storage.RunCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.CreatedAt.UnixNano(), cursor.RunID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
