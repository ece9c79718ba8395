package agent

import (
	"container/list"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
	MaxOpenFiles  int
}

// DefaultMaxOpenLogFiles caps cached per-session handles.
const DefaultMaxOpenLogFiles = 64

// ConversationLogEvent is one line of a conversation log.
type ConversationLogEvent struct {
	Timestamp  string         `json:"ts"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw"`
	Content    string         `json:"content"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records assistant traffic without blocking requests.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

type fileConversationLogger struct {
	cfg    ConversationLogConfig
	logger *slog.Logger
	queue  chan ConversationLogEvent
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	dropped int

	files  *handleCache
	global *os.File
}

// NewConversationLogger returns an async NDJSON logger, or a no-op logger when
// both per-session and global logging are disabled.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled && !cfg.GlobalEnabled {
		return noopConversationLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.MaxOpenFiles <= 0 {
		cfg.MaxOpenFiles = DefaultMaxOpenLogFiles
	}

	l := &fileConversationLogger{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		files:  newHandleCache(cfg.MaxOpenFiles),
	}
	if cfg.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create conversation log dir: %w", err)
		}
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o750); err != nil {
			return nil, fmt.Errorf("create global conversation log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.GlobalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open global conversation log: %w", err)
		}
		l.global = f
	}

	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Log enqueues an event. Events are dropped when the queue is full.
func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}
	select {
	case l.queue <- event:
	default:
		l.dropped++
		if l.dropped == 1 || l.dropped%100 == 0 {
			l.logger.Warn("Conversation log queue full, dropping events", "dropped", l.dropped)
		}
	}
}

// Close drains the queue and closes every open file.
func (l *fileConversationLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()

	firstErr := l.files.closeAll()
	if l.global != nil {
		if err := l.global.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *fileConversationLogger) run() {
	defer l.wg.Done()
	for event := range l.queue {
		line, err := json.Marshal(event)
		if err != nil {
			l.logger.Warn("Failed to marshal conversation event", "error", err)
			continue
		}
		line = append(line, '\n')

		if l.cfg.Enabled {
			if err := l.writeSession(event, line); err != nil {
				l.logger.Warn("Failed to write conversation log", "user_id", event.UserID, "error", err)
			}
		}
		if l.global != nil {
			if _, err := l.global.Write(line); err != nil {
				l.logger.Warn("Failed to write global conversation log", "error", err)
			}
		}
	}
}

func (l *fileConversationLogger) writeSession(event ConversationLogEvent, line []byte) error {
	user := safePathComponent(event.UserID, "anonymous")
	session := safePathComponent(event.SessionID, "default")
	key := user + "/" + session

	f, ok := l.files.get(key)
	if !ok {
		dir := filepath.Join(l.cfg.Dir, user)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		var err error
		f, err = os.OpenFile(filepath.Join(dir, session+".ndjson"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return err
		}
		if evicted := l.files.put(key, f); evicted != nil {
			if err := evicted.Close(); err != nil {
				l.logger.Warn("Failed to close evicted conversation log", "error", err)
			}
		}
	}
	_, err := f.Write(line)
	return err
}

// handleCache keeps the most recently used session files open. Files are
// opened in append mode, so an evicted session reopens where it left off.
type handleCache struct {
	limit int
	order *list.List
	items map[string]*list.Element
}

type handleEntry struct {
	key  string
	file *os.File
}

func newHandleCache(limit int) *handleCache {
	return &handleCache{limit: limit, order: list.New(), items: make(map[string]*list.Element)}
}

func (c *handleCache) get(key string) (*os.File, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*handleEntry).file, true
}

// put stores f and returns the least recently used file when the cache overflows.
func (c *handleCache) put(key string, f *os.File) *os.File {
	c.items[key] = c.order.PushFront(&handleEntry{key: key, file: f})
	if c.order.Len() <= c.limit {
		return nil
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	entry := oldest.Value.(*handleEntry)
	delete(c.items, entry.key)
	return entry.file
}

func (c *handleCache) size() int { return c.order.Len() }

func (c *handleCache) closeAll() error {
	var firstErr error
	for el := c.order.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*handleEntry).file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.order.Init()
	c.items = make(map[string]*list.Element)
	return firstErr
}

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func safePathComponent(s, fallback string) string {
	s = unsafePathChars.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07]*\x07`)

// cleanForReadability strips terminal escape sequences and control characters.
func cleanForReadability(s string) string {
	s = ansiSequence.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
