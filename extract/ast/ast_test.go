package ast

import (
	"testing"

	"github.com/depfused/depfused/types"
)

func names(packages []types.Package) map[string]bool {
	out := make(map[string]bool, len(packages))
	for _, p := range packages {
		out[p.Name] = true
	}
	return out
}

func TestParseImports(t *testing.T) {
	js := `
		import lodash from 'lodash';
		import { useState } from 'react';
		import * as utils from '@company/utils';
	`
	got := names(New(false).Parse(js, "test.js"))
	for _, want := range []string{"lodash", "react", "@company/utils"} {
		if !got[want] {
			t.Errorf("expected %q in %v", want, got)
		}
	}
}

func TestParseRequire(t *testing.T) {
	js := `
		const fs = require('fs');
		const lodash = require('lodash');
		const internal = require('@internal/auth');
	`
	got := names(New(false).Parse(js, "test.js"))
	if !got["lodash"] || !got["@internal/auth"] {
		t.Errorf("expected lodash and @internal/auth in %v", got)
	}
	if got["fs"] {
		t.Errorf("fs is a node builtin, should be excluded: %v", got)
	}
}

func TestParseDynamicImport(t *testing.T) {
	js := `
		const loadModule = async () => {
			const mod = await import('lodash');
			const utils = await import('@co/utils');
			return mod;
		};
	`
	got := names(New(false).Parse(js, "test.js"))
	if !got["lodash"] || !got["@co/utils"] {
		t.Errorf("expected lodash and @co/utils in %v", got)
	}
}

func TestSkipRelativeImports(t *testing.T) {
	js := `
		import local from './local';
		import parent from '../parent';
		import absolute from '/absolute/path';
	`
	got := New(false).Parse(js, "test.js")
	if len(got) != 0 {
		t.Errorf("expected no packages from relative/absolute imports, got %v", got)
	}
}

func TestExtractFromCommentsIgnoresNonComments(t *testing.T) {
	js := `
		import x from '@real/pkg';
		// built with @acme/build-tool v2
	`
	got := names(New(false).Parse(js, "test.js"))
	if !got["@real/pkg"] || !got["@acme/build-tool"] {
		t.Errorf("expected both import and comment package, got %v", got)
	}
	if _, ok := extractFromComments(js)["@real/pkg"]; ok {
		t.Errorf("import specifier @real/pkg leaked into the comment scan")
	}
}

func TestErrorMessageStringsRequireLowConfidenceOptIn(t *testing.T) {
	js := `throw new Error("Cannot find module '@scope/pkg'");`

	if got := names(New(false).Parse(js, "test.js")); got["@scope/pkg"] {
		t.Errorf("expected error-message extraction to be suppressed by default, got %v", got)
	}
	if got := names(New(true).Parse(js, "test.js")); !got["@scope/pkg"] {
		t.Errorf("expected @scope/pkg with low confidence enabled, got %v", got)
	}
}
