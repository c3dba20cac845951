package pipeline

// Step names one stage of a sync.
type Step string

// Pipeline steps in execution order.
const (
	StepAuthenticate Step = "authenticate"
	StepCSRFToken    Step = "csrf token"
	StepOnchange     Step = "onchange"
	StepConfigure    Step = "configure report"
	StepGenerate     Step = "generate report"
	StepDownload     Step = "download report"
	StepExtract      Step = "extract table"
	StepPublish      Step = "publish"
)

// FullSteps are the steps of Run.
var FullSteps = []Step{
	StepAuthenticate,
	StepCSRFToken,
	StepOnchange,
	StepConfigure,
	StepGenerate,
	StepDownload,
	StepExtract,
	StepPublish,
}

// PublishSteps are the steps of PublishFile.
var PublishSteps = []Step{StepExtract, StepPublish}

// Progress observes a running job. Implementations must not block.
type Progress interface {
	JobStarted(job string, steps int)
	StepStarted(job string, step Step)
	StepFinished(job string, step Step, err error)
	JobFinished(job string, err error)
}

type nopProgress struct{}

func (nopProgress) JobStarted(string, int) {}
func (nopProgress) StepStarted(string, Step) {}
func (nopProgress) StepFinished(string, Step, error) {}
func (nopProgress) JobFinished(string, error) {}
