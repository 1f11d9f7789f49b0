package log

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"
)

// NewGCPLogger sends entries to Cloud Logging under logID and mirrors them
// to the console.
func NewGCPLogger(ctx context.Context, projectID, credentialsFile, logID string, min Severity) (Log, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := logging.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create logging client: %w", err)
	}

	return &gcpLogger{
		client:  client,
		logger:  client.Logger(logID),
		console: NewConsoleLogger(os.Stdout, min),
		min:     min,
	}, nil
}

type gcpLogger struct {
	client  *logging.Client
	logger  *logging.Logger
	console Log
	min     Severity
}

func (gl *gcpLogger) Close() error {
	if err := gl.logger.Flush(); err != nil {
		_ = gl.client.Close()
		return err
	}
	return gl.client.Close()
}

func (gl *gcpLogger) Log(l Labeler, message string, severity Severity) {
	if severity < gl.min {
		return
	}
	var labels map[string]string
	if l != nil {
		labels = l.Labels()
	}
	gl.logger.Log(logging.Entry{Payload: message, Severity: logging.Severity(severity), Labels: labels})
	gl.console.Log(l, message, severity)
}

func (gl *gcpLogger) Debugf(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Debug)
}

func (gl *gcpLogger) Infof(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Info)
}

func (gl *gcpLogger) Noticef(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Notice)
}

func (gl *gcpLogger) Warningf(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Warning)
}

func (gl *gcpLogger) Errorf(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Error)
}

func (gl *gcpLogger) Criticalf(l Labeler, format string, args ...any) {
	gl.Log(l, fmt.Sprintf(format, args...), Critical)
}
