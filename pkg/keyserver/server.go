// Package keyserver answers scancode lookups over a line based socket
// protocol. Each request line holds one code, decimal or an evdev name; each
// response line holds the key's name, or "error: " and a message.
package keyserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"codeberg.org/miketth/keynames/pkg/keycodes"
	"go.uber.org/zap"
)

const errorPrefix = "error: "

type Translator interface {
	GetKeyAsString(scancode uint32) string
}

// Server serializes lookups, since translators need not be safe for
// concurrent use.
type Server struct {
	translator Translator
	log        *zap.SugaredLogger

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewServer(translator Translator, log *zap.SugaredLogger) *Server {
	return &Server{
		translator: translator,
		log:        log,
	}
}

// Serve accepts connections until ctx is done, then closes ln, waits for
// open connections to finish and returns ctx.Err().
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := s.ServeConn(ctx, conn)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warnw("serve connection", "error", err)
			}
		}()
	}
}

// ServeConn answers requests on conn until the peer hangs up or ctx is
// done. conn is closed on return.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	s.log.Debugw("client connected", "remote", conn.RemoteAddr())

	stop := make(chan struct{})
	defer close(stop)

	lineCh := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lineCh)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			select {
			case lineCh <- scanner.Text():
			case <-stop:
				return
			}
		}
		errCh <- scanner.Err()
	}()

	w := bufio.NewWriter(conn)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lineCh:
			if !ok {
				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("read request: %w", err)
					}
				default:
				}
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := fmt.Fprintln(w, s.answer(line)); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}

func (s *Server) answer(request string) string {
	code, err := keycodes.Parse(request)
	if err != nil {
		return errorPrefix + err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.translator.GetKeyAsString(code)
	s.log.Debugw("lookup", "code", code, "name", name)
	return name
}
