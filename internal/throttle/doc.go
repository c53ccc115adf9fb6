// Package throttle serializes outbound remote operations behind a shared
// rate governor so that concurrent callers never burst the hosting service.
package throttle
