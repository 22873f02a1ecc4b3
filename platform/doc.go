// Package platform abstracts the ambient environment the pipeline runs in:
// the host identity used for base-URL resolution, the session token store,
// the user-facing notification surface, and navigation. The HTTP client
// core, fault collector, and realtime channel depend only on these
// interfaces, so the whole pipeline runs against in-memory fakes in tests
// and against real integrations in embedding applications.
package platform
