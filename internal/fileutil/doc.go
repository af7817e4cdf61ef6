// Package fileutil holds small filesystem helpers shared by the index and blob stores.
package fileutil
