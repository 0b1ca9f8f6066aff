package usecase

import "time"

type noopRecorder struct{}

func (noopRecorder) RecordSync(string, time.Duration) {}
func (noopRecorder) RecordConflict()                  {}
func (noopRecorder) RecordRemoteError(string)         {}
func (noopRecorder) RecordQueueProcessed(int)         {}
func (noopRecorder) SetQueueDepth(int)                {}
