// Package reconcile decides which task mutations move a project's local
// state toward an external issue tracker.
//
// The decision is one-directional. Open issues without a task produce a
// create; closed issues whose task is not done produce a completion. Nothing
// here ever moves a task away from done or back to todo: a done task whose
// issue is reopened stays done, and a status changed by hand is left alone
// unless the issue closes, in which case the task is completed again.
//
// Plan is pure: it reads a task snapshot and a list of issues and returns
// mutations in issue enumeration order. Applying them is the caller's job.
package reconcile
