package generator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"colorforge/internal/logging"
	"colorforge/internal/render"
	"colorforge/internal/tasks"
)

// progressStep is one named point in the generation pipeline.
type progressStep struct {
	Name    string
	Number  int
	Percent int
}

var (
	stepCheckingCache = progressStep{"Checking cache...", 1, 10}
	stepLoadingMasks  = progressStep{"Loading masks...", 2, 20}
	stepLoadingFrame  = progressStep{"Loading frame...", 3, 30}
	stepFace          = progressStep{"Colorizing face...", 4, 45}
	stepLEDs          = progressStep{"Colorizing LEDs...", 5, 60}
	stepCompositing   = progressStep{"Compositing layers...", 6, 75}
	stepUploading     = progressStep{"Uploading...", 7, 90}
)

var stageSteps = map[render.Stage]progressStep{
	render.StageFrame:     stepLoadingFrame,
	render.StageFace:      stepFace,
	render.StageLEDs:      stepLEDs,
	render.StageComposite: stepCompositing,
}

// tracker writes one continuously updated progress row per session.
// Storage failures are logged and swallowed so progress reporting can
// never break a render.
type tracker struct {
	store     *tasks.Store
	logger    *slog.Logger
	rowID     string
	sessionID string
	model     string
}

func newTracker(store *tasks.Store, logger *slog.Logger, sessionID, model string) *tracker {
	return &tracker{
		store:     store,
		logger:    logger,
		rowID:     uuid.NewString(),
		sessionID: sessionID,
		model:     model,
	}
}

func (t *tracker) record(ctx context.Context, p tasks.Progress) {
	p.ID = t.rowID
	p.SessionID = t.sessionID
	p.Model = t.model
	if err := t.store.RecordProgress(ctx, p); err != nil {
		t.logger.Warn("progress write failed",
			logging.String("session", t.sessionID),
			logging.Error(err))
	}
}

func (t *tracker) step(ctx context.Context, step progressStep) {
	t.record(ctx, tasks.Progress{
		StepName:   step.Name,
		StepNumber: step.Number,
		Percent:    step.Percent,
	})
}

func (t *tracker) done(ctx context.Context, resultURL string) {
	t.record(ctx, tasks.Progress{
		StepName:   "Completed",
		StepNumber: stepUploading.Number,
		Percent:    100,
		Completed:  true,
		ResultURL:  resultURL,
	})
}

func (t *tracker) fail(ctx context.Context, err error) {
	t.record(ctx, tasks.Progress{
		StepName:    "Error",
		StepNumber:  -1,
		Percent:     0,
		ErrorDetail: err.Error(),
	})
}
