package mfa

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// PromptSource asks a human for the code, for SMS and other methods that
// cannot be read programmatically.
type PromptSource struct {
	In  io.Reader
	Out io.Writer

	r *bufio.Reader
}

func (s *PromptSource) Code(ctx context.Context) (string, error) {
	fmt.Fprint(s.Out, "Enter the verification code: ")
	if s.r == nil {
		s.r = bufio.NewReader(s.In)
	}

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := s.r.ReadString('\n')
		ch <- result{strings.TrimSpace(line), err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && res.code == "" {
			return "", fmt.Errorf("reading verification code: %w", res.err)
		}
		return res.code, nil
	}
}
