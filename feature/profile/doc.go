// Package profile exposes the account mirror over HTTP: full snapshot
// imports running as background jobs, a status poll, and synchronous
// live-event application. The heavy lifting lives in the subpackages;
// this package wires them to fiber and the job runner.
package profile
