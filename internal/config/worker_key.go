package config

type WorkerKeyStruct struct {
	PrefetchQueue       string
	AnswerEventsQueue   string
	CaseGenerationQueue string
	ProgressSaveQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PrefetchQueue:       "prefetch_queue",
	AnswerEventsQueue:   "answer_events_queue",
	CaseGenerationQueue: "case_generation_queue",
	ProgressSaveQueue:   "progress_save_queue",
}
