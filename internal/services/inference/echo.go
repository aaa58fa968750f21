package inference

import (
	"context"
	"fmt"
	"strings"
)

// EchoService replies with the visitor's text. Development only.
type EchoService struct{}

// Generate echoes req.Text.
func (EchoService) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", fmt.Errorf("empty input")
	}
	return "You said: " + text, nil
}
