// Package tui is the interactive surface of stepctl.
//
// The code is split the way bubbletea programs usually are: model holds
// state, messages and commands; controller routes messages and owns side
// effects; view renders; design holds the palette and shared styles.
//
// Engine completions reach the program through a dispatch.Queue that a
// command drains one closure at a time, so every engine callback runs
// inside Update on the program goroutine.
package tui
