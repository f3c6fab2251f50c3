// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

// Plugin entry points - global names a Lua plugin script is expected to define or may call.
const (
	GetStreamsFn = "GetStreams"
	ConsoleLib   = "console"
	TLSLib       = "http_tls"
)

// Media types accepted by the plugin contract.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// ManifestFile is the well-known manifest filename at the root of a plugin repository.
const ManifestFile = "manifest.json"

// PluginExtension is the file extension of local plugin scripts.
const PluginExtension = ".lua"

// PluginTemplate is a Go text/template for scaffolding new Lua plugin files.
const PluginTemplate = `{{ $divider := repeat "-" (plus (max (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @id      {{ .ID }}
-- @name    {{ .Name }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias params { id: string, type: "movie"|"tv", season: integer|nil, episode: integer|nil }
---@alias stream { url: string, name: string|nil, title: string|nil, quality: string|nil, headers: table<string, string>|nil }


----- IMPORTS -----
local http = require("http")
local json = require("json")
--- END IMPORTS ---



----- MAIN -----

--- Looks up playable streams for the given content.
-- @param params params Content being resolved
-- @return stream[] Table of streams
function {{ .GetStreamsFn }}(params)
	console.log("resolving " .. params.type .. " " .. params.id)

	local streams = {}
	return streams
end

--- END MAIN ---

-- ex: ts=4 sw=4 et filetype=lua
`
