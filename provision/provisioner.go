// Package provision creates or updates a Jenkins pipeline job and optionally
// starts a build of it.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pipelinekit/jenkins-provisioner/api"
	"github.com/pipelinekit/jenkins-provisioner/jobconfig"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/pipelinekit/jenkins-provisioner/prompt"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultSubmitTimeout = 30 * time.Second
)

// ErrDeclined is returned by Run when the user chose not to overwrite an
// existing job. Nothing was changed on the server.
var ErrDeclined = errors.New("aborted by user")

// Client is the part of *api.Client the provisioner uses.
type Client interface {
	Endpoint() string
	JobURL(name string) string
	Status(ctx context.Context) (*api.Status, *api.Response, error)
	JobExists(ctx context.Context, name string) (bool, error)
	CreateJob(ctx context.Context, name string, config []byte) (*api.Response, error)
	UpdateJob(ctx context.Context, name string, config []byte) (*api.Response, error)
	TriggerBuild(ctx context.Context, name string, params map[string]string) (*api.QueueItem, *api.Response, error)
}

type Config struct {
	JobName string

	// Document describes the job configuration to send.
	Document jobconfig.Options

	// TriggerBuild starts a build without asking.
	TriggerBuild bool
	BuildParams  map[string]string

	// AssumeYes skips the confirmation before an existing job is overwritten.
	AssumeYes bool

	// Timeout bounds each read and the build trigger, SubmitTimeout the
	// create or update request.
	Timeout       time.Duration
	SubmitTimeout time.Duration
}

type Provisioner struct {
	client  Client
	logger  logger.Logger
	confirm prompt.Confirmer
	conf    Config
}

func New(l logger.Logger, client Client, confirm prompt.Confirmer, conf Config) *Provisioner {
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}
	if conf.SubmitTimeout <= 0 {
		conf.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Provisioner{
		client:  client,
		logger:  l,
		confirm: confirm,
		conf:    conf,
	}
}

// Run connects, checks for the job, synthesizes its configuration, creates or
// updates it and finally triggers a build if asked to. It stops at the first
// failure except for the build trigger, which is best effort.
func (p *Provisioner) Run(ctx context.Context) error {
	p.logger.Info("Connecting to Jenkins at: %s", p.client.Endpoint())

	if err := p.CheckConnection(ctx); err != nil {
		return err
	}

	exists := p.JobExists(ctx)
	if exists && !p.conf.AssumeYes {
		ok, err := p.confirm.Confirm(fmt.Sprintf("Job '%s' already exists. Do you want to update it?", p.conf.JobName))
		if err != nil {
			return fmt.Errorf("asking for confirmation: %w", err)
		}
		if !ok {
			p.logger.Info("Aborted.")
			return ErrDeclined
		}
	}

	doc, err := jobconfig.Build(p.logger, p.conf.Document)
	if err != nil {
		return fmt.Errorf("preparing job configuration: %w", err)
	}

	if err := p.CreateOrUpdate(ctx, exists, doc); err != nil {
		return err
	}

	trigger := p.conf.TriggerBuild
	if !trigger {
		trigger, err = p.confirm.Confirm("Do you want to trigger a build now?")
		if err != nil {
			p.logger.Warn("Not triggering a build: %v", err)
			trigger = false
		}
	}
	if trigger {
		p.TriggerBuild(ctx)
	}

	p.logger.Info("Done!")
	return nil
}

// CheckConnection queries the controller's status. An error here means the
// run cannot continue.
func (p *Provisioner) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.conf.Timeout)
	defer cancel()

	status, _, err := p.client.Status(ctx)
	if err != nil {
		p.logger.Error("Failed to connect to Jenkins: %v", err)
		return fmt.Errorf("connecting to Jenkins at %s: %w", p.client.Endpoint(), err)
	}

	l := p.logger
	if status.Version != "" {
		l = l.WithFields(logger.StringField("version", status.Version))
	}
	l.Info("Successfully connected to Jenkins")
	return nil
}

// JobExists reports whether the job already exists. Errors count as "does
// not exist"; Jenkins refuses to create a job whose name is taken, so the
// worst case is a reported create failure rather than a duplicate.
func (p *Provisioner) JobExists(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.conf.Timeout)
	defer cancel()

	exists, err := p.client.JobExists(ctx, p.conf.JobName)
	if err != nil {
		p.logger.Warn("Could not determine whether job '%s' exists, assuming it does not: %v", p.conf.JobName, err)
	}
	return exists
}

// CreateOrUpdate sends doc to the job's config.xml when the job exists, and
// to createItem otherwise.
func (p *Provisioner) CreateOrUpdate(ctx context.Context, exists bool, doc *jobconfig.Document) error {
	ctx, cancel := context.WithTimeout(ctx, p.conf.SubmitTimeout)
	defer cancel()

	l := p.logger.WithFields(
		logger.StringField("source", doc.Source.String()),
		logger.BytesField("size", len(doc.XML)),
	)

	var err error
	if exists {
		l.Warn("Job '%s' already exists. Updating...", p.conf.JobName)
		_, err = p.client.UpdateJob(ctx, p.conf.JobName, doc.XML)
	} else {
		l.Info("Creating new job: %s", p.conf.JobName)
		_, err = p.client.CreateJob(ctx, p.conf.JobName, doc.XML)
	}

	if err != nil {
		p.logger.Error("Failed to create/update pipeline: %v", err)
		var apierr *api.ErrorResponse
		if errors.As(err, &apierr) && apierr.Body != "" {
			p.logger.Error("Response: %s", apierr.Body)
		}
		return fmt.Errorf("provisioning job %q: %w", p.conf.JobName, err)
	}

	p.logger.Info("Pipeline job '%s' created/updated successfully!", p.conf.JobName)
	p.logger.Info("Job URL: %s", p.client.JobURL(p.conf.JobName))
	return nil
}

// TriggerBuild starts a build. Failures are logged and reported as false,
// never returned.
func (p *Provisioner) TriggerBuild(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.conf.Timeout)
	defer cancel()

	item, _, err := p.client.TriggerBuild(ctx, p.conf.JobName, p.conf.BuildParams)
	if err != nil {
		p.logger.Warn("Build trigger failed: %v", err)
		return false
	}

	l := p.logger
	if item.Location != "" {
		l = l.WithFields(logger.StringField("queue", item.Location))
	}
	l.Info("Build triggered successfully!")
	p.logger.Info("View build at: %s", p.client.JobURL(p.conf.JobName))
	return true
}
