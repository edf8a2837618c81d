package generator

// Role names known to the crew.
const (
	RoleResearcher = "story_researcher"
	RoleDesigner   = "book_designer"
	RoleWriter     = "book_writer"
	RoleController = "quality_controller"
	RoleEvaluator  = "publishing_evaluator"
)

// ToolWebSearch gives an agent search results for the topic as context.
const ToolWebSearch = "web_search"

// roleTable is the static registry of roles and the tools each one is built
// with. A role present in agents.yaml but absent here is rejected.
var roleTable = map[string][]string{
	RoleResearcher: {ToolWebSearch},
	RoleDesigner:   nil,
	RoleWriter:     nil,
	RoleController: nil,
	RoleEvaluator:  nil,
}

// taskTable binds every workflow task to the role that performs it by
// default. tasks.yaml may reassign a task to another registered role.
var taskTable = map[string]string{
	TaskResearch:        RoleResearcher,
	TaskDesign:          RoleDesigner,
	TaskWriteChapter:    RoleWriter,
	TaskReviewChapter:   RoleController,
	TaskConclusion:      RoleWriter,
	TaskFinalControl:    RoleController,
	TaskFinalEvaluation: RoleEvaluator,
}

// Tasks returns the names of every workflow task.
func Tasks() []string {
	return []string{
		TaskResearch,
		TaskDesign,
		TaskWriteChapter,
		TaskReviewChapter,
		TaskConclusion,
		TaskFinalControl,
		TaskFinalEvaluation,
	}
}
