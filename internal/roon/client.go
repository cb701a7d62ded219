// Package roon manages the connection to a Roon Core and exposes the
// browse operations the importer needs.
//
// Pairing flow (one-time per Roon Core):
//  1. Call Connect(host, port), which starts the socket goroutine
//  2. User opens Roon > Settings > Extensions and clicks Enable
//  3. Roon issues an auth token; Status() reports authorized
//  4. The token is saved to disk so future runs skip re-pairing
package roon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pmills/discobase/internal/logger"
)

var (
	// ErrNotConnected is returned when an operation requires an active
	// Roon Core connection and there is none.
	ErrNotConnected = errors.New("not connected to Roon Core")

	// ErrNotAuthorized is returned when the Core is reachable but the
	// extension has not been approved yet.
	ErrNotAuthorized = errors.New("Roon Core not yet authorized, approve the extension in Roon > Settings > Extensions")

	trackRe = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

const (
	extensionID      = "discobase_importer"
	extensionName    = "Discobase Importer"
	extensionVersion = "1.0.0"

	registerTimeout = 5 * time.Minute
	requestTimeout  = 30 * time.Second
	pageSize        = 100
)

// Item is a single entry in a Roon browse listing.
type Item struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ItemKey  string `json:"item_key,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// Status describes the current connection state. Connected means the
// socket handshake with the Core completed; Authorized additionally
// requires a valid auth token.
type Status struct {
	Connected  bool    `json:"connected"`
	Authorized bool    `json:"authorized"`
	CoreName   *string `json:"core_name"`
}

// ProbeResult carries raw browse data for connectivity diagnostics.
type ProbeResult struct {
	Albums           []Item       `json:"albums"`
	FirstAlbumDetail *AlbumDetail `json:"first_album_detail"`
}

// AlbumDetail is the drill-down view of a single album.
type AlbumDetail struct {
	Items  []Item   `json:"items"`
	Tracks []string `json:"tracks"`
}

type envelope struct {
	RequestID int             `json:"request_id"`
	Name      string          `json:"name,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

type registerBody struct {
	ExtensionID    string  `json:"extension_id"`
	DisplayName    string  `json:"display_name"`
	DisplayVersion string  `json:"display_version"`
	Publisher      string  `json:"publisher"`
	Email          string  `json:"email"`
	Token          *string `json:"token,omitempty"`
}

type registerReply struct {
	Token    string `json:"token"`
	CoreName string `json:"core_name"`
}

type browseRequest struct {
	Hierarchy string `json:"hierarchy"`
	ItemKey   string `json:"item_key,omitempty"`
	PopAll    bool   `json:"pop_all,omitempty"`
}

type browseReply struct {
	Action string `json:"action,omitempty"`
	List   struct {
		Title string `json:"title,omitempty"`
		Count int    `json:"count"`
	} `json:"list"`
}

type loadRequest struct {
	Hierarchy string `json:"hierarchy"`
	Offset    int    `json:"offset"`
	Count     int    `json:"count"`
}

type loadReply struct {
	Items []Item `json:"items"`
}

type imageRequest struct {
	ImageKey string `json:"image_key"`
	Scale    string `json:"scale"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type imageReply struct {
	ContentType string `json:"content_type,omitempty"`
	Image       string `json:"image"`
}

// Client is a websocket client for the Roon Core extension API. Browse
// navigation is stateful on the Core side, so callers holding a browse
// sequence (list then load pages) must not interleave: the importer and
// probe serialise via browseMu.
type Client struct {
	tokenPath string

	mu        sync.Mutex
	conn      *websocket.Conn
	token     string
	coreName  string
	connected bool
	nextID    int
	pending   map[int]chan json.RawMessage

	// generation counts Connect calls; a dial only commits its result
	// while it is still the latest one.
	generation int

	browseMu sync.Mutex
}

// NewClient creates a client that persists its auth token at tokenPath.
func NewClient(tokenPath string) *Client {
	c := &Client{
		tokenPath: tokenPath,
		pending:   make(map[int]chan json.RawMessage),
	}
	c.token = c.loadToken()
	return c
}

func (c *Client) loadToken() string {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return ""
	}
	var stored struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return ""
	}
	return stored.Token
}

func (c *Client) saveToken(token string) {
	data, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return
	}
	if err := os.WriteFile(c.tokenPath, data, 0o600); err != nil {
		logger.Warn("Failed to persist Roon token: %v", err)
	}
}

// Connect starts a non-blocking connection attempt to the Roon Core.
// Any existing connection is closed first. Poll Status() to learn when
// authorization has completed.
func (c *Client) Connect(host string, port int) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.coreName = ""
	token := c.token
	c.mu.Unlock()

	url := fmt.Sprintf("ws://%s:%d/api", host, port)
	logger.Info("Roon connection initiated to %s:%d", host, port)

	go c.dialAndRegister(url, token, gen)
}

func (c *Client) dialAndRegister(url, token string, gen int) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Warn("Roon dial failed: %v", err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)

	body := registerBody{
		ExtensionID:    extensionID,
		DisplayName:    extensionName,
		DisplayVersion: extensionVersion,
		Publisher:      "discobase",
		Email:          "noreply@discobase",
	}
	if token != "" {
		body.Token = &token
	}

	// Registration blocks until the user approves the extension in the
	// Roon UI, which can take a while on first pairing.
	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()

	raw, err := c.call(ctx, "register", body)
	if err != nil {
		logger.Warn("Roon registration failed: %v", err)
		return
	}
	var reply registerReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		logger.Warn("Roon registration reply malformed: %v", err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.connected = true
	c.coreName = reply.CoreName
	if reply.Token != "" {
		c.token = reply.Token
	}
	c.mu.Unlock()

	if reply.Token != "" {
		c.saveToken(reply.Token)
	}
	logger.Info("Roon Core connected: %s", reply.CoreName)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.connected = false
				c.conn = nil
			}
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debug("Roon message malformed: %v", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[env.RequestID]
		if ok {
			delete(c.pending, env.RequestID)
		}
		c.mu.Unlock()

		if ok {
			ch <- env.Body
			close(ch)
		}
	}
}

// call sends a request and waits for the matching response.
func (c *Client) call(ctx context.Context, name string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.nextID++
	id := c.nextID
	ch := make(chan json.RawMessage, 1)
	c.pending[id] = ch
	err = conn.WriteJSON(envelope{RequestID: id, Name: name, Body: payload})
	c.mu.Unlock()

	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("roon request failed: %w", err)
	}

	select {
	case raw, ok := <-ch:
		if !ok {
			return nil, ErrNotConnected
		}
		return raw, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Status reports the current connection state, persisting a freshly
// issued token as a side effect.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.connected {
		return Status{Connected: false, Authorized: false, CoreName: nil}
	}
	name := c.coreName
	return Status{
		Connected:  true,
		Authorized: c.token != "",
		CoreName:   &name,
	}
}

// ready returns an error unless the Core is connected and authorized.
func (c *Client) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return ErrNotConnected
	}
	if c.token == "" {
		return ErrNotAuthorized
	}
	return nil
}

// browse navigates the albums hierarchy.
func (c *Client) browse(ctx context.Context, req browseRequest) (*browseReply, error) {
	raw, err := c.call(ctx, "browse", req)
	if err != nil {
		return nil, err
	}
	var reply browseReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("browse reply malformed: %w", err)
	}
	return &reply, nil
}

// load reads one page of the current browse listing.
func (c *Client) load(ctx context.Context, offset, count int) ([]Item, error) {
	raw, err := c.call(ctx, "load", loadRequest{Hierarchy: "albums", Offset: offset, Count: count})
	if err != nil {
		return nil, err
	}
	var reply loadReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("load reply malformed: %w", err)
	}
	return reply.Items, nil
}

// LoadAlbumPage loads one page from the albums root. When offset is 0
// the browse state is reset to the root first and the Core-reported
// total is returned; otherwise total is 0.
func (c *Client) LoadAlbumPage(ctx context.Context, offset int) ([]Item, int, error) {
	if err := c.ready(); err != nil {
		return nil, 0, err
	}
	c.browseMu.Lock()
	defer c.browseMu.Unlock()

	total := 0
	if offset == 0 {
		reply, err := c.browse(ctx, browseRequest{Hierarchy: "albums", PopAll: true})
		if err != nil {
			return nil, 0, err
		}
		total = reply.List.Count
	}
	items, err := c.load(ctx, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// PageSize is the number of items LoadAlbumPage requests per call.
func (c *Client) PageSize() int { return pageSize }

// FetchAlbumDetail drills into an album and collects its track titles
// and artwork. The browse state is reset to the albums root first so
// sequential calls always start from a known position.
func (c *Client) FetchAlbumDetail(ctx context.Context, itemKey, imageKey string) ([]string, []byte, error) {
	if err := c.ready(); err != nil {
		return nil, nil, err
	}
	c.browseMu.Lock()
	defer c.browseMu.Unlock()

	if _, err := c.browse(ctx, browseRequest{Hierarchy: "albums", PopAll: true}); err != nil {
		return nil, nil, err
	}
	if _, err := c.browse(ctx, browseRequest{Hierarchy: "albums", ItemKey: itemKey}); err != nil {
		return nil, nil, err
	}

	var tracks []string
	offset := 0
	for {
		items, err := c.load(ctx, offset, pageSize)
		if err != nil {
			return nil, nil, err
		}
		tracks = append(tracks, parseTracks(items)...)
		if len(items) < pageSize {
			break
		}
		offset += pageSize
	}

	var image []byte
	if imageKey != "" {
		image = c.fetchImage(ctx, imageKey)
	}
	return tracks, image, nil
}

// fetchImage downloads album art via the Roon image service. Failures
// are logged and swallowed, artwork is best effort.
func (c *Client) fetchImage(ctx context.Context, imageKey string) []byte {
	raw, err := c.call(ctx, "image", imageRequest{
		ImageKey: imageKey,
		Scale:    "fit",
		Width:    600,
		Height:   600,
	})
	if err != nil {
		logger.Debug("Roon image fetch failed for key %s: %v", imageKey, err)
		return nil
	}
	var reply imageReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		logger.Debug("Roon image reply malformed for key %s: %v", imageKey, err)
		return nil
	}
	if reply.Image == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(reply.Image)
	if err != nil {
		logger.Debug("Roon image decode failed for key %s: %v", imageKey, err)
		return nil
	}
	return data
}

// Probe browses the Roon library and returns raw data for the first
// count albums, used to verify connectivity before a full import.
func (c *Client) Probe(ctx context.Context, count int) (*ProbeResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if count <= 0 || count > 10 {
		count = 3
	}

	c.browseMu.Lock()
	if _, err := c.browse(ctx, browseRequest{Hierarchy: "albums", PopAll: true}); err != nil {
		c.browseMu.Unlock()
		return nil, err
	}
	albums, err := c.load(ctx, 0, count)
	c.browseMu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &ProbeResult{Albums: albums}
	if len(albums) > 0 && albums[0].ItemKey != "" {
		tracks, _, err := c.FetchAlbumDetail(ctx, albums[0].ItemKey, "")
		if err == nil {
			result.FirstAlbumDetail = &AlbumDetail{Tracks: tracks}
		}
	}
	return result, nil
}

// parseTracks extracts track titles from album browse items, stripping
// the "N. " prefix. Items that do not look like tracks are ignored.
func parseTracks(items []Item) []string {
	var tracks []string
	for _, item := range items {
		if m := trackRe.FindStringSubmatch(item.Title); m != nil {
			tracks = append(tracks, m[1])
		}
	}
	return tracks
}
