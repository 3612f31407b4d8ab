/*
 * optlist.go
 *
 * Copyright 2021-2022 Bill Zissimopoulos
 */
/*
 * This file is part of Hubfs.
 *
 * You can redistribute it and/or modify it under the terms of the GNU
 * Affero General Public License version 3 as published by the Free
 * Software Foundation.
 */

// Package util holds small flag.Value helpers shared by cmd/freyafs.
package util

// Optlist collects repeated occurrences of a flag (cmd/freyafs's -o)
// into a slice, implementing flag.Value.
type Optlist []string

// String implements flag.Value.String.
func (l *Optlist) String() string {
	return ""
}

// Set implements flag.Value.Set.
func (l *Optlist) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// Split expands each comma-separated entry in l into its own element,
// the way cmd/freyafs turns repeated "-o a,b" flags into "-oa" "-ob"
// FUSE mount options.
func (l Optlist) Split() []string {
	out := []string{}
	for _, entry := range l {
		start := 0
		for i := 0; i <= len(entry); i++ {
			if i == len(entry) || entry[i] == ',' {
				out = append(out, entry[start:i])
				start = i + 1
			}
		}
	}
	return out
}
