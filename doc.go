// Package asyncflow rewrites async functions marked with mobx's flow into the
// generator form flow requires, so that authors can write ordinary
// async/await code and still get cancellable flows.
//
// # Marking sites
//
// A source file opts in by importing the marker, optionally under an alias:
//
//	import { flow } from 'mobx';
//	import { flow as asyncAction } from 'mobx';
//
// Three forms are then recognized:
//
//	const fn = flow(async (input) => { ... });  // call
//	@flow async method(input) { ... }           // decorated method
//	@flow prop = async (input) => { ... };      // decorated property
//
// Each is rewritten so that the function body becomes a generator passed to
// the marker and invoked with the current receiver:
//
//	const fn = (input) => { return flow(function* fn() { ... }).call(this); };
//
// Every await inside the body becomes a yield. Marking sites nested inside a
// marked function are converted first.
//
// # Usage
//
// Transform a single source unit:
//
//	t := asyncflow.NewTransformer(asyncflow.Options{})
//	res, err := t.TransformSource(ctx, "store.ts", src)
//
// Or transform many files with a worker pool and an optional result cache:
//
//	e, err := asyncflow.NewEngine(asyncflow.WithCachePath(".asyncflow/cache.db"))
//	if err != nil { ... }
//	defer e.Close()
//	results, err := e.TransformDirectory(ctx, "src")
//
// A marking site whose function is neither async nor already a generator
// fails the whole file with an [UnresolvableMarkedExpressionError]. Files
// that do not import the marker are returned unchanged.
package asyncflow
