package qmakelog

import (
	"strings"

	"github.com/willibrandon/gomigrator/model"
)

// applyCustomField records one dotted sub-field of an extra compiler or target.
// Fields may arrive in any order; records are only realized by Finish.
func (e *Extractor) applyCustomField(kind declKind, name, value string) {
	acc := e.acc
	switch kind {
	case declCompilerInput:
		acc.compilers.get(name).inputs = strings.Fields(value)
	case declCompilerOutput:
		acc.compilers.get(name).output = value
	case declCompilerVariable:
		acc.compilers.get(name).variable = value
	case declCommands:
		acc.commands[name] = value
		if !acc.postTargets.has(name) && !acc.targets.has(name) && !acc.compilers.has(name) {
			acc.targets.get(name).target = name
		}
	case declTargetTarget:
		if rec, ok := acc.compilers.lookup(name); ok && !acc.targets.has(name) {
			rec.target = value
			return
		}
		acc.targets.get(name).target = value
		if post, ok := acc.postTargets.lookup(name); ok {
			post.target = value
		}
	case declTargetDepends:
		deps := strings.Fields(value)
		if rec, ok := acc.compilers.lookup(name); ok && !acc.targets.has(name) {
			rec.depends = deps
			return
		}
		acc.targets.get(name).depends = deps
		if post, ok := acc.postTargets.lookup(name); ok {
			post.depends = deps
		}
	}
}

// applyPostTargetDeps registers QMAKE_POST_TARGETDEPS names, inheriting
// whatever the matching extra target already declared.
func (e *Extractor) applyPostTargetDeps(names []string) {
	for _, name := range names {
		if e.acc.postTargets.has(name) {
			continue
		}
		post := e.acc.postTargets.get(name)
		post.target = name
		if rec, ok := e.acc.targets.lookup(name); ok {
			if rec.target != "" {
				post.target = rec.target
			}
			post.depends = rec.depends
		}
	}
}

// expandInputs replaces a variable name with the values it was assigned in
// the trace, so "proto.input := PROTOS" yields the .proto files.
func (e *Extractor) expandInputs(raw []string) []string {
	var out []string
	for _, r := range raw {
		if values, ok := e.vars[r]; ok {
			out = append(out, values...)
			continue
		}
		out = append(out, r)
	}
	return out
}

// realizeCustom appends every complete extra compiler and target.
// It returns the outputs and target names the module depends on.
func (e *Extractor) realizeCustom() (outputs, targetNames []string) {
	acc := e.acc

	for _, name := range acc.compilers.names {
		rec := acc.compilers.items[name]
		inputs := e.expandInputs(rec.inputs)
		command := strings.TrimSpace(acc.commands[name])
		if len(inputs) == 0 || rec.output == "" || command == "" {
			e.logger.Debug("Extra compiler {Name} is incomplete, not realized", name)
			continue
		}

		deps := make([]string, 0, len(inputs)+len(rec.depends))
		for _, in := range inputs {
			deps = append(deps, e.ctx.Normalize(in))
		}
		for _, d := range rec.depends {
			deps = append(deps, e.ctx.NormalizePath(d, "", true))
		}

		output := e.ctx.NormalizePath(rec.output, e.ctx.BuildDir, false)
		e.append(&model.CustomCommand{
			ID:           model.NewID(model.TypeCustomCommand, name),
			Output:       output,
			Command:      command,
			Dependencies: deps,
		})
		outputs = append(outputs, output)

		if (rec.variable == "SOURCES" || rec.variable == "GENERATED_SOURCES") && !strings.Contains(output, "${") {
			if _, ok := sourceLanguage(output); ok {
				acc.sources.Add(output)
			}
		}
		e.logger.Debug("Added custom command {Name} -> {Output}", name, output)
	}

	realized := make(map[string]struct{})
	emit := func(name string, rec *targetRecord) {
		command := strings.TrimSpace(acc.commands[name])
		if rec.target == "" || command == "" {
			e.logger.Debug("Extra target {Name} is incomplete, not realized", name)
			return
		}
		deps := make([]string, 0, len(rec.depends))
		for _, d := range rec.depends {
			deps = append(deps, e.ctx.NormalizePath(d, "", true))
		}
		target := e.ctx.NormalizePath(rec.target, "", true)
		e.append(&model.CustomTarget{
			ID:           model.NewID(model.TypeCustomTarget, name),
			Name:         target,
			Commands:     splitCommands(command),
			Dependencies: deps,
		})
		realized[name] = struct{}{}
		targetNames = append(targetNames, target)
		e.logger.Debug("Added custom target {Name}", target)
	}

	for _, name := range acc.targets.names {
		if acc.compilers.has(name) {
			continue
		}
		emit(name, acc.targets.items[name])
	}
	for _, name := range acc.postTargets.names {
		if _, done := realized[name]; done || acc.compilers.has(name) {
			continue
		}
		emit(name, acc.postTargets.items[name])
	}
	return outputs, targetNames
}

// splitCommands splits a shell command chain on "&&".
func splitCommands(command string) []string {
	var out []string
	for _, part := range strings.Split(command, "&&") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
