package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// PlayerService drives playback on a Connect device.
type PlayerService struct {
	client *Client
}

type playRequest struct {
	URIs       []string `json:"uris"`
	PositionMS int      `json:"position_ms"`
}

// Play starts playback of a single URI on the device at the given offset.
func (p *PlayerService) Play(ctx context.Context, token, deviceID, uri string, positionMS int) error {
	body, err := json.Marshal(playRequest{URIs: []string{uri}, PositionMS: positionMS})
	if err != nil {
		return fmt.Errorf("encode play request: %w", err)
	}
	return p.client.do(ctx, http.MethodPut, p.playerURL("/play", deviceID, nil), token, bytes.NewReader(body), nil)
}

// Pause halts playback on the device.
func (p *PlayerService) Pause(ctx context.Context, token, deviceID string) error {
	return p.client.do(ctx, http.MethodPut, p.playerURL("/pause", deviceID, nil), token, nil, nil)
}

// SetVolume sets the device volume; volume is in [0, 1].
func (p *PlayerService) SetVolume(ctx context.Context, token, deviceID string, volume float64) error {
	percent := int(math.Round(volume * 100))
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	extra := url.Values{}
	extra.Set("volume_percent", strconv.Itoa(percent))
	return p.client.do(ctx, http.MethodPut, p.playerURL("/volume", deviceID, extra), token, nil, nil)
}

func (p *PlayerService) playerURL(path, deviceID string, extra url.Values) string {
	q := url.Values{}
	if extra != nil {
		q = extra
	}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	u := p.client.apiBase + "/me/player" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// BoundPlayer fixes a token and device so the session can issue playback
// commands without knowing about authentication. It remembers the volume it
// last set, since the Web API has no read endpoint for it.
type BoundPlayer struct {
	svc      *PlayerService
	token    string
	deviceID string

	mu     sync.Mutex
	volume float64
}

// NewBoundPlayer binds the player service to one user's token and device.
func NewBoundPlayer(svc *PlayerService, token, deviceID string) *BoundPlayer {
	return &BoundPlayer{svc: svc, token: token, deviceID: deviceID, volume: 0.5}
}

func (b *BoundPlayer) Play(ctx context.Context, uri string, positionMS int) error {
	return b.svc.Play(ctx, b.token, b.deviceID, uri, positionMS)
}

func (b *BoundPlayer) Pause(ctx context.Context) error {
	return b.svc.Pause(ctx, b.token, b.deviceID)
}

func (b *BoundPlayer) SetVolume(ctx context.Context, volume float64) error {
	if err := b.svc.SetVolume(ctx, b.token, b.deviceID, volume); err != nil {
		return err
	}
	b.mu.Lock()
	b.volume = volume
	b.mu.Unlock()
	return nil
}

// Volume returns the last volume successfully set on the device.
func (b *BoundPlayer) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}
