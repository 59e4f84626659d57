package keyserver

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
)

var ErrRemote = errors.New("server error")

type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return NewClient(conn), nil
}

func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Lookup asks for the name of one code, given as accepted by keycodes.Parse.
func (c *Client) Lookup(code string) (string, error) {
	if strings.ContainsAny(code, "\r\n") {
		return "", fmt.Errorf("invalid code %q", code)
	}

	if _, err := fmt.Fprintln(c.conn, code); err != nil {
		return "", fmt.Errorf("write to key server: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from key server: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")

	if msg, ok := strings.CutPrefix(line, errorPrefix); ok {
		return "", fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	return line, nil
}
