/*
Package magicmount overlays module files onto read-only system partitions
without a union filesystem in the kernel.

# Overview

Modules ship a directory tree rooted at "system" that mirrors the layout of
the partitions they modify. magicmount merges the trees of every enabled
module into one tree of typed nodes, checks that tree against the real
filesystem, and then mounts it: files are bind mounted over their originals,
and directories that cannot take a direct bind mount are rebuilt on tmpfs
(skeletons) and repopulated from a read-only mirror of the original.

The tree is built once per boot, mounted once and discarded.

# Node Types

Every node has a type, and the type fixes its precedence:

	Type      Rank  Mount action
	mirror       1  bind the mirrored original (inside a skeleton)
	inter        2  none, children are mounted one by one
	skeleton     4  tmpfs with the original's attributes, then children
	module       8  bind the module's copy
	root        16  none, top of a partition
	override    32  injected framework binary and its applet links

When two nodes compete for the same name, the higher rank replaces the lower
one and takes over its children. Equal ranks keep the node that came first,
so the first module in enumeration order wins a conflict.

# Replacing a Directory

A file named ".replace" inside a module directory replaces the whole
directory: the original contents are hidden rather than merged with.

	/data/adb/modules/fonts/system/fonts/.replace
	/data/adb/modules/fonts/system/fonts/Roboto-Regular.ttf

# Basic Usage

	package main

	import (
	    "log/slog"
	    "os"

	    "github.com/absfs/magicmount"
	)

	func main() {
	    logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	    src := magicmount.NewHostFS("/")
	    modules, err := magicmount.LoadModules(src, magicmount.DefaultModuleStore, logger)
	    if err != nil {
	        logger.Error("load modules", "error", err)
	        return
	    }

	    mm := magicmount.New(
	        magicmount.WithSource(src),
	        magicmount.WithRuntimeDir("/dev/xyz"),
	        magicmount.WithBinaries("/dev/xyz"),
	        magicmount.WithLogger(logger),
	    )
	    report := mm.Run(modules)
	    if report.Err != nil {
	        logger.Warn("partially mounted", "error", report.Err)
	    }
	}

# Dry Runs

A Recorder performs nothing and keeps every operation in order, which is
how the plan of a pass can be inspected:

	rec := &magicmount.Recorder{}
	mm := magicmount.New(magicmount.WithMounter(rec))
	mm.Run(modules)
	fmt.Print(rec)

# Failures

Mounting is fail-open. A failed mount leaves the original file visible,
is logged, and is collected into Report.Err; the walk always continues.
Unreadable module directories contribute nothing, and a skeleton whose
mirror is missing is skipped.

# Split Partitions

Modules place vendor files under system/vendor. When /vendor, /product or
/system_ext is a real directory, the matching subtree is moved into a
partition root of its own, and the module copy is still looked up under the
module's system directory.
*/
package magicmount
