// Package win32 implements window inspection and default render endpoint
// muting on Windows. Only the window collector builds on other platforms.
package win32
