package main

import (
	// Import all provider modules to trigger their init() functions
	_ "github.com/rubiojr/omnibox/pkg/providers/contacts"
	_ "github.com/rubiojr/omnibox/pkg/providers/files"
	_ "github.com/rubiojr/omnibox/pkg/providers/github"
	_ "github.com/rubiojr/omnibox/pkg/providers/web"
	_ "github.com/rubiojr/omnibox/pkg/providers/youtube"
)
