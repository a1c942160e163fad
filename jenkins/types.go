package jenkins

import "time"

// Build is the typed view of a build's api/json document
type Build struct {
	Class           string   `json:"_class"`
	Number          int      `json:"number"`
	DisplayName     string   `json:"displayName"`
	FullDisplayName string   `json:"fullDisplayName"`
	Result          string   `json:"result"` // SUCCESS, FAILURE, ABORTED, UNSTABLE, empty while building
	Building        bool     `json:"building"`
	Timestamp       int64    `json:"timestamp"`
	Duration        int64    `json:"duration"`
	QueueID         int64    `json:"queueId"`
	URL             string   `json:"url"`
	Actions         []Action `json:"actions"`
}

// StartedAt returns the build start time
func (b *Build) StartedAt() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// Elapsed returns the build duration
func (b *Build) Elapsed() time.Duration {
	return time.Duration(b.Duration) * time.Millisecond
}

// Parameters returns the build parameters as name/value pairs
func (b *Build) Parameters() map[string]any {
	params := make(map[string]any)
	for _, a := range b.Actions {
		for _, p := range a.Parameters {
			params[p.Name] = p.Value
		}
	}
	return params
}

// Action is an entry of a build's actions list
type Action struct {
	Class      string      `json:"_class"`
	Parameters []Parameter `json:"parameters,omitempty"`
	Causes     []Cause     `json:"causes,omitempty"`
}

// Parameter is a build parameter value
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Cause describes why a build started
type Cause struct {
	Class            string `json:"_class"`
	ShortDescription string `json:"shortDescription"`
}

// Plugin is an installed plugin as listed by the plugin manager
type Plugin struct {
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Version   string `json:"version"`
	Active    bool   `json:"active"`
	Enabled   bool   `json:"enabled"`
}

type pluginList struct {
	Plugins []Plugin `json:"plugins"`
}
