package generate

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"aura/internal/design"
	"aura/internal/infra"
	"aura/internal/replicate"
)

// JobClient is the slice of the Replicate client the orchestrator drives.
type JobClient interface {
	HasCredentials() bool
	ResolveVersion(ctx context.Context) string
	Create(ctx context.Context, version string, input replicate.PredictionInput) (*replicate.Prediction, error)
	Get(ctx context.Context, id string) (*replicate.Prediction, error)
	Cancel(ctx context.Context, id string) error
}

// phase tracks the orchestrator through its state machine. Exactly one of
// the terminal phases is reached per invocation.
type phase string

const (
	phaseSubmitting phase = "submitting"
	phasePolling    phase = "polling"
	phaseSucceeded  phase = "succeeded"
	phaseFailed     phase = "failed"
	phaseTimedOut   phase = "timed_out"
)

// Fixed inference parameters for every SDXL run.
const (
	numInferenceSteps = 40
	guidanceScale     = 7.5
)

const (
	defaultPollInterval    = time.Second
	defaultMaxPollAttempts = 180
)

// Options configures an Orchestrator.
type Options struct {
	Client          JobClient
	Logger          *infra.Logger
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Orchestrator turns one generation request into a finished image URL by
// driving a remote prediction to a terminal state. It holds no per-request
// state and is safe for concurrent use; the only shared state is the model
// version memo inside the client.
type Orchestrator struct {
	client       JobClient
	logger       *infra.Logger
	pollInterval time.Duration
	maxAttempts  int
}

// Result is the successful outcome of one generation.
type Result struct {
	ImageURL  string
	Rationale string
	Strength  float64
}

// NewOrchestrator constructs an orchestrator with the polling defaults of
// one-second cadence and a 180-attempt ceiling.
func NewOrchestrator(opts Options) *Orchestrator {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxAttempts := opts.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxPollAttempts
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Orchestrator{
		client:       opts.Client,
		logger:       logger,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// Generate runs the full pipeline: compose the prompt, resolve the model
// version, submit the job, and poll until a terminal state. It returns a
// *Error tagged with the failure kind on every non-success path.
func (o *Orchestrator) Generate(ctx context.Context, req design.Request) (*Result, error) {
	if !o.client.HasCredentials() {
		return nil, &Error{Kind: KindConfiguration, Message: "generation service credentials are not configured"}
	}

	ph := phaseSubmitting
	prompt := design.Compose(req.Style, req.RoomType, req.Instruction, req.Intensity)
	version := o.client.ResolveVersion(ctx)
	o.logger.Info().
		Str("phase", string(ph)).
		Str("version", version).
		Str("room_type", req.RoomType).
		Str("style", req.Style).
		Float64("strength", prompt.Strength).
		Msg("generate: submitting prediction")

	prediction, err := o.client.Create(ctx, version, replicate.PredictionInput{
		Image:             req.Image,
		Prompt:            prompt.Positive,
		NegativePrompt:    prompt.Negative,
		PromptStrength:    prompt.Strength,
		NumInferenceSteps: numInferenceSteps,
		GuidanceScale:     guidanceScale,
	})
	if err != nil {
		if errors.Is(err, replicate.ErrRateLimited) {
			return nil, &Error{Kind: KindNetwork, Message: "High traffic: please wait a few seconds and try again.", Err: err}
		}
		return nil, &Error{Kind: KindSubmission, Message: "the generation service could not accept the job", Err: err}
	}

	ph = phasePolling
	for attempt := 0; !prediction.Status.Terminal(); attempt++ {
		if attempt >= o.maxAttempts {
			ph = phaseTimedOut
			if cancelErr := o.client.Cancel(ctx, prediction.ID); cancelErr != nil {
				o.logger.Warn().Err(cancelErr).Str("prediction_id", prediction.ID).Msg("generate: cancel after timeout failed")
			}
			o.logger.Error().
				Str("phase", string(ph)).
				Str("prediction_id", prediction.ID).
				Int("attempts", attempt).
				Msg("generate: polling ceiling exhausted")
			return nil, &Error{Kind: KindTimeout, Message: "generation took too long"}
		}

		if err := o.wait(ctx); err != nil {
			return nil, &Error{Kind: KindNetwork, Message: "generation aborted", Err: err}
		}

		prediction, err = o.client.Get(ctx, prediction.ID)
		if err != nil {
			return nil, &Error{Kind: KindNetwork, Message: "lost contact with the generation service", Err: err}
		}
		if (attempt+1)%5 == 0 {
			o.logger.Debug().
				Str("phase", string(ph)).
				Str("prediction_id", prediction.ID).
				Str("status", string(prediction.Status)).
				Int("attempts", attempt+1).
				Msg("generate: polling")
		}
	}

	if prediction.Status == replicate.StatusFailed || prediction.Status == replicate.StatusCanceled {
		ph = phaseFailed
		o.logger.Error().
			Str("phase", string(ph)).
			Str("prediction_id", prediction.ID).
			Str("detail", prediction.Error).
			Msg("generate: prediction failed")
		return nil, &Error{Kind: KindModel, Message: prediction.Error}
	}

	if len(prediction.Output) == 0 {
		ph = phaseFailed
		o.logger.Error().
			Str("phase", string(ph)).
			Str("prediction_id", prediction.ID).
			Msg("generate: prediction succeeded without output")
		return nil, &Error{Kind: KindModel, Message: "prediction succeeded without output"}
	}

	ph = phaseSucceeded
	o.logger.Info().
		Str("phase", string(ph)).
		Str("prediction_id", prediction.ID).
		Msg("generate: prediction succeeded")

	// The first URL is canonical; any extra outputs are discarded.
	return &Result{
		ImageURL:  prediction.Output[0],
		Rationale: design.Rationale(req.Style, req.RoomType, req.Instruction),
		Strength:  prompt.Strength,
	}, nil
}

func (o *Orchestrator) wait(ctx context.Context) error {
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
