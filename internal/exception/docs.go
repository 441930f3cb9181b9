package exception

import "sync"

// DocContent is one media type of a documented response
type DocContent struct {
	Example ErrorInfo `json:"example"`
}

// DocResponse documents one error status code
type DocResponse struct {
	Description string                `json:"description"`
	Content     map[string]DocContent `json:"content"`
}

// ResponsesForDocs describes every status code the registry can produce.
// When several kinds share a status code the last one in registry order
// wins.
func (r *Registry) ResponsesForDocs() map[int]DocResponse {
	responses := make(map[int]DocResponse, len(r.entries))
	for _, e := range r.entries {
		responses[e.Info.StatusCode] = DocResponse{
			Description: e.Info.Msg,
			Content: map[string]DocContent{
				"application/json": {Example: e.Info},
			},
		}
	}
	return responses
}

var defaultDocs = sync.OnceValue(func() map[int]DocResponse {
	return BuildRegistry().ResponsesForDocs()
})

// ResponsesForDocs returns the documentation of the default registry.
// The returned map is shared and must not be modified.
func ResponsesForDocs() map[int]DocResponse {
	return defaultDocs()
}
