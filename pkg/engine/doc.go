// Package engine runs declarative pipelines of plugin-backed stages under
// three execution strategies: a sequential instrumented debug executor, a
// level-parallel streaming performance executor, and a bulk executor that
// fans one pipeline out across many independent files behind a shared result
// cache.
//
// A caller assembles a Pipeline (ordered stages, each pairing a plugin handle
// with an operation and declared input/output type labels), builds an initial
// model.PluginData, and hands both to exactly one executor.
package engine
