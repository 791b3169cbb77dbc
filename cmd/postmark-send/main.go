// Command postmark-send delivers messages described in a YAML manifest
// through the Postmark API. Credentials and defaults come from the
// environment (or a .env file); pass -dry-run to print the wire payloads
// instead of sending.
//
// Manifest format:
//
//	messages:
//	  - from: a@x.com
//	    to: [b@x.com]
//	    subject: Hi
//	    text_body: Hello
//	  - to: [c@x.com]
//	    template_id: 12345
//	    template_model:
//	      name: Bob
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/veepionyc/postmark/pkg/config"
	"github.com/veepionyc/postmark/pkg/logger"
	"github.com/veepionyc/postmark/pkg/postmark"
)

type manifest struct {
	Messages []manifestMessage `yaml:"messages"`
}

type manifestMessage struct {
	From          string            `yaml:"from"`
	To            []string          `yaml:"to"`
	Cc            []string          `yaml:"cc"`
	Bcc           []string          `yaml:"bcc"`
	Subject       string            `yaml:"subject"`
	TextBody      string            `yaml:"text_body"`
	HTMLBody      string            `yaml:"html_body"`
	ReplyTo       string            `yaml:"reply_to"`
	Tag           string            `yaml:"tag"`
	Headers       []manifestHeader  `yaml:"headers"`
	Metadata      map[string]string `yaml:"metadata"`
	TemplateID    int64             `yaml:"template_id"`
	TemplateModel map[string]any    `yaml:"template_model"`
}

type manifestHeader struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (mm manifestMessage) toMessage() postmark.Message {
	m := postmark.Message{
		From:          mm.From,
		To:            mm.To,
		Cc:            mm.Cc,
		Bcc:           mm.Bcc,
		Subject:       mm.Subject,
		TextBody:      mm.TextBody,
		HTMLBody:      mm.HTMLBody,
		ReplyTo:       mm.ReplyTo,
		Tag:           mm.Tag,
		Metadata:      mm.Metadata,
		TemplateID:    mm.TemplateID,
		TemplateModel: mm.TemplateModel,
	}
	for _, h := range mm.Headers {
		m.Headers = append(m.Headers, postmark.Header{Name: h.Name, Value: h.Value})
	}
	return m
}

// Exit codes by failure class, so wrappers can tell a bad token from a bad
// message without parsing log output.
const (
	exitFailure      = 1 // manifest, config, or message validation problems
	exitUnauthorized = 2 // server token rejected
	exitRejected     = 3 // message refused by the API (content rules, inactive recipient)
	exitTransport    = 4 // no usable response or remote fault; retry may help
	exitPartial      = 5 // batch delivered with some messages failing
)

func exitCode(err error) int {
	var (
		ue *postmark.UnprocessableEntityError
		ir *postmark.InactiveRecipientError
		te *postmark.TransportError
		se *postmark.ServerError
	)
	switch {
	case errors.Is(err, postmark.ErrUnauthorized):
		return exitUnauthorized
	case errors.Is(err, postmark.ErrPartialFailure):
		return exitPartial
	case errors.As(err, &ue), errors.As(err, &ir):
		return exitRejected
	case errors.As(err, &te), errors.As(err, &se):
		return exitTransport
	default:
		return exitFailure
	}
}

func main() {
	manifestPath := flag.String("manifest", "", "path to the YAML message manifest (required)")
	dryRun := flag.Bool("dry-run", false, "serialize and print payloads without sending")
	flag.Parse()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg)

	if err := run(context.Background(), log, *manifestPath, *dryRun); err != nil {
		log.Error("send failed", logger.Error(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, log *slog.Logger, manifestPath string, dryRun bool) error {
	if manifestPath == "" {
		return errors.New("-manifest is required")
	}

	var m manifest
	if err := config.LoadYAML(manifestPath, &m); err != nil {
		return err
	}
	if len(m.Messages) == 0 {
		return fmt.Errorf("manifest %s contains no messages", manifestPath)
	}

	var cfg postmark.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if dryRun {
		cfg.TestMode = true
	}

	client, err := postmark.New(cfg, postmark.WithLogger(log))
	if err != nil {
		return err
	}

	msgs := make([]postmark.Message, len(m.Messages))
	templated := false
	for i, mm := range m.Messages {
		msgs[i] = mm.toMessage()
		if msgs[i].TemplateID != 0 || msgs[i].TemplateModel != nil {
			templated = true
		}
	}

	if len(msgs) == 1 {
		return sendSingle(ctx, client, msgs[0], templated)
	}
	return sendBatch(ctx, client, msgs, templated)
}

func sendSingle(ctx context.Context, client *postmark.Client, msg postmark.Message, templated bool) error {
	var (
		res *postmark.Result
		err error
	)
	if templated {
		res, err = client.SendWithTemplate(ctx, msg)
	} else {
		res, err = client.Send(ctx, msg)
	}
	if err != nil {
		return err
	}
	printResult(0, res)
	return nil
}

func sendBatch(ctx context.Context, client *postmark.Client, msgs []postmark.Message, templated bool) error {
	var (
		results []postmark.MessageResult
		err     error
	)
	if templated {
		results, err = client.SendBatchWithTemplates(ctx, msgs)
	} else {
		results, err = client.SendBatch(ctx, msgs)
	}
	for i := range results {
		if results[i].Err != nil {
			fmt.Printf("[%d] failed: %v\n", i, results[i].Err)
			continue
		}
		printResult(i, &results[i].Result)
	}
	return err
}

func printResult(i int, res *postmark.Result) {
	switch res.Status {
	case postmark.StatusDryRun:
		fmt.Printf("[%d] dry-run payload: %s\n", i, res.Payload)
	default:
		fmt.Printf("[%d] sent: id=%s to=%s at=%s\n", i, res.MessageID, res.To, res.SubmittedAt)
	}
}
