// Package gateway talks to the chat platform gateway: a child process that
// holds the user session and speaks newline-delimited JSON-RPC on stdio.
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/logger"
)

// DefaultRequestTimeout bounds a request when the caller's context has no deadline
const DefaultRequestTimeout = time.Minute

// MaxLineSize bounds one JSON-RPC line read from the gateway. Longer lines
// are discarded.
const MaxLineSize = 8 * 1024 * 1024

// ErrNotRunning is returned by requests made before Start or after Stop
var ErrNotRunning = errors.New("gateway not running")

var errLineTooLong = errors.New("line exceeds MaxLineSize")

// Event is a notification from the gateway
type Event struct {
	Method string
	Params json.RawMessage
}

// Client is the JSON-RPC client for the gateway process
type Client struct {
	command []string
	dir     string

	// Env overrides the environment of the child process when set
	Env []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr io.ReadCloser
	sendMu sync.Mutex

	requestID int64
	pending   map[int64]chan *Response
	pendingMu sync.Mutex

	events  chan Event
	running atomic.Bool
	selfID  int64

	log *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a client for the gateway started by command in dir
func NewClient(command []string, dir string) *Client {
	return &Client{
		command: command,
		dir:     dir,
		pending: make(map[int64]chan *Response),
		events:  make(chan Event, 1000),
		log:     logger.For("Gateway"),
	}
}

// Start spawns the gateway process and performs the handshake
func (c *Client) Start(ctx context.Context) error {
	if len(c.command) == 0 {
		return fmt.Errorf("gateway command is empty")
	}
	// The process lives until Stop; ctx only bounds the handshake
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.log.Info("Starting", "command", c.command)

	c.cmd = exec.CommandContext(c.ctx, c.command[0], c.command[1:]...)
	c.cmd.Dir = c.dir
	if c.Env != nil {
		c.cmd.Env = c.Env
	}

	var err error
	c.stdin, err = c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	c.stdout = bufio.NewReaderSize(stdout, 1024*1024)

	c.stderr, err = c.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := c.cmd.Start(); err != nil {
		c.cancel()
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	c.running.Store(true)

	c.wg.Add(2)
	go c.readLoop()
	go c.readStderr()

	if err := c.initialize(ctx); err != nil {
		c.Stop()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	c.log.Info("Initialized", "self_id", c.SelfID())
	return nil
}

// Stop closes stdin and waits for the process, killing it after 5 seconds
func (c *Client) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}

	done := make(chan error, 1)
	go func() {
		done <- c.cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.log.Warn("Gateway did not exit, killing")
		c.cmd.Process.Kill()
		<-done
	}

	c.cancel()
	c.wg.Wait()

	c.log.Info("Stopped")
	return nil
}

// Events returns the notification channel. It is closed once the gateway's
// stdout ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// SelfID returns the logged-in account id reported by initialize
func (c *Client) SelfID() int64 {
	return atomic.LoadInt64(&c.selfID)
}

// IsRunning returns true while the gateway process is alive
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// ============ High-level API ============

// GetAdminLog fetches up to limit admin log events with minID < id < maxID
func (c *Client) GetAdminLog(ctx context.Context, params AdminLogParams) (*AdminLogResult, error) {
	var result AdminLogResult
	if err := c.call(ctx, MethodGetAdminLog, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetForumTopic fetches one forum topic
func (c *Client) GetForumTopic(ctx context.Context, chatID, topicID int64) (*ForumTopic, error) {
	var result ForumTopic
	if err := c.call(ctx, MethodGetForumTopic, ForumTopicParams{ChatID: chatID, TopicID: topicID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAuthorizations lists the authorized sessions of the account
func (c *Client) GetAuthorizations(ctx context.Context) ([]Authorization, error) {
	var result AuthorizationsResult
	if err := c.call(ctx, MethodGetAuthorizations, nil, &result); err != nil {
		return nil, err
	}
	return result.Authorizations, nil
}

// ============ Internal Methods ============

func (c *Client) initialize(ctx context.Context) error {
	params := InitializeParams{
		ClientInfo: ClientInfo{
			Name:    "chatlog",
			Version: "1.0.0",
		},
	}

	var result InitializeResult
	if err := c.call(ctx, MethodInitialize, params, &result); err != nil {
		return err
	}
	if result.SelfID == 0 {
		return fmt.Errorf("initialize returned no self_id")
	}
	atomic.StoreInt64(&c.selfID, result.SelfID)

	return c.sendNotification(MethodInitialized, nil)
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	resp, err := c.sendRequest(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}

func (c *Client) sendRequest(ctx context.Context, method string, params interface{}) (*Response, error) {
	if !c.running.Load() {
		return nil, ErrNotRunning
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	id := atomic.AddInt64(&c.requestID, 1)
	req := Request{
		ID:     id,
		Method: method,
		Params: params,
	}

	respChan := make(chan *Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = respChan
	c.pendingMu.Unlock()

	if err := c.sendRaw(req); err != nil {
		c.dropPending(id)
		return nil, err
	}

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: RPC error %d: %s", method, resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		c.dropPending(id)
		return nil, fmt.Errorf("request %s: %w", method, ctx.Err())
	case <-c.ctx.Done():
		c.dropPending(id)
		return nil, c.ctx.Err()
	}
}

func (c *Client) dropPending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *Client) sendNotification(method string, params interface{}) error {
	notif := struct {
		Method string      `json:"method"`
		Params interface{} `json:"params,omitempty"`
	}{
		Method: method,
		Params: params,
	}
	return c.sendRaw(notif)
}

func (c *Client) sendRaw(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err = c.stdin.Write(append(data, '\n'))
	return err
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.events)

	for {
		line, err := readLine(c.stdout, MaxLineSize)
		if errors.Is(err, errLineTooLong) {
			c.log.Warn("Dropping oversized line", "limit", MaxLineSize)
			continue
		}
		if err != nil {
			if err != io.EOF && c.running.Load() {
				c.log.Error("Read error", "err", err)
			}
			break
		}
		if len(line) == 0 {
			continue
		}
		c.handleLine(line)
	}

	// Nobody will answer the remaining requests
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		ch <- &Response{ID: id, Error: &RPCError{Code: -1, Message: "gateway exited"}}
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

func (c *Client) handleLine(line []byte) {
	// Responses carry an id, notifications a method
	var resp Response
	if err := json.Unmarshal(line, &resp); err == nil && resp.ID != 0 {
		c.pendingMu.Lock()
		if ch, ok := c.pending[resp.ID]; ok {
			ch <- &resp
			delete(c.pending, resp.ID)
		}
		c.pendingMu.Unlock()
		return
	}

	var notif Notification
	if err := json.Unmarshal(line, &notif); err != nil || notif.Method == "" {
		c.log.Warn("Ignoring unparseable line", "line", string(line))
		return
	}

	// Updates must not be lost, so block instead of dropping
	select {
	case c.events <- Event{Method: notif.Method, Params: notif.Params}:
	case <-c.ctx.Done():
	}
}

func (c *Client) readStderr() {
	defer c.wg.Done()

	scanner := bufio.NewScanner(c.stderr)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			c.log.Debug("stderr", "line", line)
		}
	}
}

// readLine returns the next line without its line break. A line longer than
// limit is consumed and reported as errLineTooLong.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if tooLong {
			return nil, errLineTooLong
		}
		if err != nil && (err != io.EOF || len(line) == 0) {
			return nil, err
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}
