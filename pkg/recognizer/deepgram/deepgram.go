// Package deepgram provides a Deepgram-backed recognizer using the Deepgram
// streaming WebSocket API. It implements the recognizer.Provider interface.
//
// Deepgram transcribes audio, it does not capture it; the provider therefore
// reads raw PCM from a caller-supplied io.Reader (typically a microphone
// capture pipe such as `arecord -f S16_LE -r 16000 -c 1`) and pumps it over
// the socket while recognition events flow back.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/coder/websocket"

	"github.com/MrWong99/voxnav/pkg/recognizer"
)

const (
	deepgramEndpoint  = "wss://api.deepgram.com/v1/listen"
	defaultModel      = "nova-3"
	defaultLanguage   = "en"
	defaultSampleRate = 16000

	// audioChunkSize is the PCM read size per socket write. At 16kHz mono
	// 16-bit this is 100ms of audio.
	audioChunkSize = 3200
)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithSampleRate sets the PCM sample rate in Hz of the audio source.
func WithSampleRate(rate int) Option {
	return func(p *Provider) {
		p.sampleRate = rate
	}
}

// Provider implements recognizer.Provider backed by the Deepgram streaming API.
type Provider struct {
	apiKey     string
	source     io.Reader
	model      string
	sampleRate int
}

// New creates a new Deepgram Provider reading PCM audio from source.
// apiKey and source must be non-nil/non-empty.
func New(apiKey string, source io.Reader, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	if source == nil {
		return nil, errors.New("deepgram: audio source must not be nil")
	}
	p := &Provider{
		apiKey:     apiKey,
		source:     source,
		model:      defaultModel,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Listen opens a streaming recognition session with Deepgram.
func (p *Provider) Listen(ctx context.Context, cfg recognizer.StreamConfig) (recognizer.Stream, error) {
	wsURL, err := p.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}

	st := &stream{
		conn:    conn,
		source:  p.source,
		results: make(chan recognizer.Result, 64),
		faults:  make(chan recognizer.Fault, 16),
		done:    make(chan struct{}),
	}

	st.wg.Add(2)
	go st.readLoop(ctx)
	go st.writeLoop(ctx)
	go func() {
		// Both loops are down before the channels close, so deliveries
		// never race a close.
		st.wg.Wait()
		close(st.results)
		close(st.faults)
	}()

	return st, nil
}

// buildURL constructs the Deepgram streaming endpoint URL for the given config.
func (p *Provider) buildURL(cfg recognizer.StreamConfig) (string, error) {
	u, err := url.Parse(deepgramEndpoint)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = defaultLanguage
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", lang)
	q.Set("punctuate", "true")
	q.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	q.Set("channels", "1")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- stream ----

// deepgramResponse is the JSON structure returned by Deepgram for Results
// and Error events.
type deepgramResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	Description string `json:"description"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// stream is a live Deepgram recognition session. It implements recognizer.Stream.
type stream struct {
	conn    *websocket.Conn
	source  io.Reader
	results chan recognizer.Result
	faults  chan recognizer.Fault

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Results returns the channel of recognition hypotheses.
func (s *stream) Results() <-chan recognizer.Result { return s.results }

// Faults returns the channel of recognizer faults.
func (s *stream) Faults() <-chan recognizer.Fault { return s.faults }

// Close terminates the session cleanly.
func (s *stream) Close() error {
	s.once.Do(func() {
		close(s.done)
		// Ask Deepgram to flush pending audio before the socket drops.
		_ = s.conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"CloseStream"}`))
		s.conn.Close(websocket.StatusNormalClosure, "stream closed")
		s.wg.Wait()
	})
	return nil
}

// pcmChunk carries one source read from the pump goroutine to writeLoop.
type pcmChunk struct {
	data []byte
	err  error
}

// writeLoop forwards PCM chunks from the audio source as binary messages
// to Deepgram until the source or the stream ends. The blocking source
// reads happen on a separate pump goroutine so that Close never waits on
// a stalled capture pipe; at worst the pump stays parked in one Read.
func (s *stream) writeLoop(ctx context.Context) {
	defer s.wg.Done()

	chunks := make(chan pcmChunk)
	go s.pump(chunks)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case c := <-chunks:
			if len(c.data) > 0 {
				if werr := s.conn.Write(ctx, websocket.MessageBinary, c.data); werr != nil {
					return
				}
			}
			if c.err != nil {
				if !errors.Is(c.err, io.EOF) {
					s.deliverFault(recognizer.Fault{
						Code:    recognizer.FaultAudioCapture,
						Message: c.err.Error(),
					})
				}
				return
			}
		}
	}
}

// pump reads the audio source chunk by chunk and hands the data to
// writeLoop. Each chunk gets its own buffer since it crosses goroutines.
func (s *stream) pump(chunks chan<- pcmChunk) {
	for {
		buf := make([]byte, audioChunkSize)
		n, err := s.source.Read(buf)
		select {
		case chunks <- pcmChunk{data: buf[:n], err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// readLoop receives JSON messages from Deepgram and dispatches them to the
// results and faults channels.
func (s *stream) readLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation.
			return
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}

		switch resp.Type {
		case "Results":
			if len(resp.Channel.Alternatives) == 0 {
				continue
			}
			alt := resp.Channel.Alternatives[0]
			s.deliverResult(recognizer.Result{
				Text:       alt.Transcript,
				IsFinal:    resp.IsFinal,
				Confidence: alt.Confidence,
			})
		case "Error":
			s.deliverFault(recognizer.Fault{
				Code:    recognizer.FaultService,
				Message: resp.Description,
			})
		}
	}
}

func (s *stream) deliverResult(r recognizer.Result) {
	select {
	case s.results <- r:
	case <-s.done:
	}
}

func (s *stream) deliverFault(f recognizer.Fault) {
	select {
	case s.faults <- f:
	case <-s.done:
	}
}
