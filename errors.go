package standings

import "errors"

// ErrMissingCollaborator reports a nil user or profile source passed to New.
var ErrMissingCollaborator = errors.New("missing collaborator")
