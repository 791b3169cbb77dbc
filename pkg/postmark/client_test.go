package postmark_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veepionyc/postmark/pkg/postmark"
)

func newTestClient(t *testing.T, serverURL string) *postmark.Client {
	t.Helper()
	return postmark.MustNew(postmark.Config{
		ServerToken: "test-token",
		BaseURL:     serverURL,
	})
}

func TestNew_Config(t *testing.T) {
	t.Parallel()

	t.Run("token required without test mode", func(t *testing.T) {
		t.Parallel()

		client, err := postmark.New(postmark.Config{})
		assert.Nil(t, client)
		assert.ErrorIs(t, err, postmark.ErrInvalidConfig)
	})

	t.Run("test mode needs no token", func(t *testing.T) {
		t.Parallel()

		client, err := postmark.New(postmark.Config{TestMode: true})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestClient_Send_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Postmark-Server-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a@x.com", payload["From"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"To":"b@x.com","SubmittedAt":"2026-08-31T12:00:00Z","MessageID":"msg-1","ErrorCode":0,"Message":"OK"}`)
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, postmark.StatusSent, res.Status)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Equal(t, "b@x.com", res.To)
	assert.Equal(t, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), res.SubmittedAt)
	assert.Empty(t, res.Payload)
}

func TestClient_Send_Unauthorized(t *testing.T) {
	t.Parallel()

	// 401 classifies as Unauthorized no matter what the body says.
	bodies := []string{``, `{"ErrorCode":406,"Message":"nope"}`, `not json at all`}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, body)
		}))

		_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
		assert.ErrorIs(t, err, postmark.ErrUnauthorized)
		server.Close()
	}
}

func TestClient_Send_UnprocessableEntity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"ErrorCode":300,"Message":"Invalid 'From' address"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
	var ue *postmark.UnprocessableEntityError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 300, ue.ErrorCode)
	assert.Equal(t, "Invalid 'From' address", ue.Message)
}

func TestClient_Send_InactiveRecipient(t *testing.T) {
	t.Parallel()

	t.Run("bare 406 status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotAcceptable)
			fmt.Fprint(w, `{"ErrorCode":406,"Message":"You tried to send to a recipient that has been marked as inactive."}`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
		var ir *postmark.InactiveRecipientError
		assert.ErrorAs(t, err, &ir)
	})

	t.Run("422 carrying error code 406", func(t *testing.T) {
		t.Parallel()

		// The live API answers 422 with the inactive-recipient code embedded
		// in the body; that must classify as InactiveRecipient, not as a
		// content error.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"ErrorCode":406,"Message":"inactive"}`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
		var ir *postmark.InactiveRecipientError
		assert.ErrorAs(t, err, &ir)
	})
}

func TestClient_Send_ServerError(t *testing.T) {
	t.Parallel()

	t.Run("500", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `boom`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
		var se *postmark.ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
		assert.Equal(t, "boom", se.Body)
	})

	t.Run("unexpected status falls back to server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
		var se *postmark.ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	})
}

func TestClient_Send_TransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	_, err := newTestClient(t, server.URL).Send(context.Background(), validMessage())
	var te *postmark.TransportError
	require.ErrorAs(t, err, &te)
	assert.Error(t, te.Cause)
}

func TestClient_Send_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := postmark.MustNew(postmark.Config{
		ServerToken:    "test-token",
		BaseURL:        server.URL,
		RequestTimeout: 20 * time.Millisecond,
	})

	_, err := client.Send(context.Background(), validMessage())
	var te *postmark.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestClient_Send_ValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	client := postmark.MustNew(
		postmark.Config{ServerToken: "test-token"},
		postmark.WithHTTPClient(failingDoer{t: t}),
	)

	m := validMessage()
	m.To = nil
	_, err := client.Send(context.Background(), m)
	assert.ErrorIs(t, err, postmark.ErrMissingRecipient)
}

func TestClient_Send_RejectsTemplateMessage(t *testing.T) {
	t.Parallel()

	client := postmark.MustNew(
		postmark.Config{ServerToken: "test-token"},
		postmark.WithHTTPClient(failingDoer{t: t}),
	)

	m := postmark.Message{
		From:          "a@x.com",
		To:            []string{"b@x.com"},
		TemplateID:    1,
		TemplateModel: map[string]any{},
	}
	_, err := client.Send(context.Background(), m)
	assert.ErrorIs(t, err, postmark.ErrWrongSendMode)

	_, err = client.SendWithTemplate(context.Background(), validMessage())
	assert.ErrorIs(t, err, postmark.ErrWrongSendMode)
}

func TestClient_SendWithTemplate_Endpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email/withTemplate", r.URL.Path)
		fmt.Fprint(w, `{"To":"b@x.com","MessageID":"msg-t","ErrorCode":0}`)
	}))
	defer server.Close()

	m := postmark.Message{
		From:          "a@x.com",
		To:            []string{"b@x.com"},
		TemplateID:    12345,
		TemplateModel: map[string]any{"name": "Bob"},
	}
	res, err := newTestClient(t, server.URL).SendWithTemplate(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "msg-t", res.MessageID)
}

func TestClient_TestMode_NoNetwork(t *testing.T) {
	t.Parallel()

	client := postmark.MustNew(
		postmark.Config{TestMode: true},
		postmark.WithHTTPClient(failingDoer{t: t}),
	)

	res, err := client.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, postmark.StatusDryRun, res.Status)
	assert.NotEmpty(t, res.MessageID)
	assert.Equal(t, "b@x.com", res.To)
	assert.False(t, res.SubmittedAt.IsZero())
	assert.NotEmpty(t, res.Payload)

	results, err := client.SendBatch(context.Background(), []postmark.Message{validMessage(), validMessage()})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, postmark.StatusDryRun, r.Result.Status)
		assert.NotEmpty(t, r.Result.Payload)
		assert.NoError(t, r.Err)
	}
}

func TestClient_SendBatch(t *testing.T) {
	t.Parallel()

	t.Run("all accepted", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/email/batch", r.URL.Path)

			// The batch endpoint takes a bare array, not a wrapped object.
			var batch []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
			require.Len(t, batch, 2)

			fmt.Fprint(w, `[
				{"To":"b@x.com","MessageID":"m-0","ErrorCode":0},
				{"To":"c@x.com","MessageID":"m-1","ErrorCode":0}
			]`)
		}))
		defer server.Close()

		m2 := validMessage()
		m2.To = []string{"c@x.com"}
		results, err := newTestClient(t, server.URL).SendBatch(context.Background(), []postmark.Message{validMessage(), m2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "m-0", results[0].Result.MessageID)
		assert.Equal(t, "m-1", results[1].Result.MessageID)
	})

	t.Run("inactive recipient in the middle does not abort", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"To":"one@x.com","MessageID":"m-0","ErrorCode":0},
				{"ErrorCode":406,"Message":"inactive recipient"},
				{"To":"three@x.com","MessageID":"m-2","ErrorCode":0}
			]`)
		}))
		defer server.Close()

		batch := []postmark.Message{validMessage(), validMessage(), validMessage()}
		results, err := newTestClient(t, server.URL).SendBatch(context.Background(), batch)

		require.Len(t, results, 3)
		assert.Equal(t, postmark.StatusSent, results[0].Result.Status)
		assert.NoError(t, results[0].Err)
		var ir *postmark.InactiveRecipientError
		assert.ErrorAs(t, results[1].Err, &ir)
		assert.Equal(t, postmark.StatusSent, results[2].Result.Status)
		assert.NoError(t, results[2].Err)

		assert.ErrorIs(t, err, postmark.ErrPartialFailure)
	})

	t.Run("per message content rejection", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"ErrorCode":300,"Message":"Invalid 'From' address"},
				{"To":"b@x.com","MessageID":"m-1","ErrorCode":0}
			]`)
		}))
		defer server.Close()

		results, err := newTestClient(t, server.URL).SendBatch(context.Background(), []postmark.Message{validMessage(), validMessage()})
		require.Len(t, results, 2)
		var ue *postmark.UnprocessableEntityError
		assert.ErrorAs(t, results[0].Err, &ue)
		assert.ErrorIs(t, err, postmark.ErrPartialFailure)
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		client := postmark.MustNew(postmark.Config{ServerToken: "t"}, postmark.WithHTTPClient(failingDoer{t: t}))
		_, err := client.SendBatch(context.Background(), nil)
		assert.ErrorIs(t, err, postmark.ErrEmptyBatch)
	})

	t.Run("mixed modes rejected", func(t *testing.T) {
		t.Parallel()

		client := postmark.MustNew(postmark.Config{ServerToken: "t"}, postmark.WithHTTPClient(failingDoer{t: t}))
		tmpl := postmark.Message{
			From:          "a@x.com",
			To:            []string{"b@x.com"},
			TemplateID:    1,
			TemplateModel: map[string]any{},
		}
		_, err := client.SendBatch(context.Background(), []postmark.Message{validMessage(), tmpl})
		assert.ErrorIs(t, err, postmark.ErrMixedBatchModes)
	})

	t.Run("invalid message reported with its index", func(t *testing.T) {
		t.Parallel()

		client := postmark.MustNew(postmark.Config{ServerToken: "t"}, postmark.WithHTTPClient(failingDoer{t: t}))
		bad := validMessage()
		bad.To = nil
		_, err := client.SendBatch(context.Background(), []postmark.Message{validMessage(), bad})
		require.ErrorIs(t, err, postmark.ErrMissingRecipient)
		assert.Contains(t, err.Error(), "message 1")
	})
}

func TestClient_SendBatch_Chunking(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	var mu sync.Mutex
	var sizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		var batch []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		mu.Lock()
		sizes = append(sizes, len(batch))
		mu.Unlock()

		results := make([]map[string]any, len(batch))
		for i, m := range batch {
			results[i] = map[string]any{
				"To":        m["To"],
				"MessageID": fmt.Sprintf("m-%d-%d", requests.Load(), i),
				"ErrorCode": 0,
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
	defer server.Close()

	client := postmark.MustNew(postmark.Config{
		ServerToken:  "test-token",
		BaseURL:      server.URL,
		MaxBatchSize: 2,
	})

	batch := make([]postmark.Message, 5)
	for i := range batch {
		m := validMessage()
		m.To = []string{fmt.Sprintf("r%d@x.com", i)}
		batch[i] = m
	}

	results, err := client.SendBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, results, 5)

	// Chunks go out sequentially in submission order: 2 + 2 + 1.
	assert.Equal(t, int32(3), requests.Load())
	mu.Lock()
	assert.Equal(t, []int{2, 2, 1}, sizes)
	mu.Unlock()
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("r%d@x.com", i), r.Result.To)
	}
}

func TestClient_SendBatch_ChunkFailureKeepsPartialResults(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[
			{"To":"r0@x.com","MessageID":"m-0","ErrorCode":0},
			{"To":"r1@x.com","MessageID":"m-1","ErrorCode":0}
		]`)
	}))
	defer server.Close()

	client := postmark.MustNew(postmark.Config{
		ServerToken:  "test-token",
		BaseURL:      server.URL,
		MaxBatchSize: 2,
	})

	batch := []postmark.Message{validMessage(), validMessage(), validMessage()}
	results, err := client.SendBatch(context.Background(), batch)

	// The first chunk's results survive the second chunk's failure.
	require.Len(t, results, 2)
	assert.Equal(t, "m-0", results[0].Result.MessageID)
	var se *postmark.ServerError
	assert.ErrorAs(t, err, &se)
}

func TestClient_SendBatchWithTemplates_Envelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email/batchWithTemplates", r.URL.Path)

		// Unlike the raw batch endpoint, template batches are wrapped.
		var envelope struct {
			Messages []map[string]any `json:"Messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		require.Len(t, envelope.Messages, 2)
		assert.NotContains(t, envelope.Messages[0], "Subject")

		fmt.Fprint(w, `[
			{"To":"b@x.com","MessageID":"m-0","ErrorCode":0},
			{"To":"b@x.com","MessageID":"m-1","ErrorCode":0}
		]`)
	}))
	defer server.Close()

	tmpl := postmark.Message{
		From:          "a@x.com",
		To:            []string{"b@x.com"},
		TemplateID:    1,
		TemplateModel: map[string]any{"k": "v"},
	}
	results, err := newTestClient(t, server.URL).SendBatchWithTemplates(context.Background(), []postmark.Message{tmpl, tmpl})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).Send(ctx, validMessage())
	var te *postmark.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, te.Cause, context.Canceled)
}
