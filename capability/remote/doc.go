// Package remote adapts HTTP endpoints into capabilities.
//
// A remote capability POSTs the task's merged inputs as a JSON object and
// decodes the JSON response body as the task output. Non-2xx responses
// become errors carrying the status and a truncated body, which the
// orchestrator reports as CAPABILITY_FAILED.
//
//	capabilities:
//	  remote:
//	    - name: geo.lookup
//	      url: http://geo.internal/v1/lookup
//	      depends_on: [weather.lookup]
//	      headers:
//	        X-Tenant: demo
package remote
