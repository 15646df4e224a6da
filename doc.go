// Package auth implements account and access control for the event
// platform: role bitmasks, identity tokens, password recovery tokens, the
// account workflows (register, login, password change and recovery, role
// assignment, profile) and a role guard.
//
// Persistence and email delivery are ports. The repository package ships a
// bun backed CredentialStore and the notify package a template Notifier.
package auth
