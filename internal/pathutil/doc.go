// Package pathutil validates names before they become path components or npm
// package names. All functions are pure; nothing here touches the disk.
package pathutil
