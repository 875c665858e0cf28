package events

import "github.com/Acterion/forum-helper/internal/models"

// OnStudyComplete is called after a submission passes the attention
// check and receives its completion code. services will call this if
// it's set; the surrounding flow (recruiting redirect, notifications)
// hangs off it.
var OnStudyComplete func(sub models.Submission)
