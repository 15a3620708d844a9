// Package config loads the optional pipeline file, gasgen.hcl, that sets
// defaults for a generation run.
//
// Every attribute is optional:
//
//	manifest       = "Content/manifest.yaml"
//	content_root   = "/Game"
//	store_dir      = ".gasgen/store"
//	metadata_path  = ".gasgen/metadata.json"
//	report_dir     = env.GASGEN_REPORT_DIR
//	dialogues      = "Dialogues/dialogues.xlsx"
//	dialogue_sheet = "Sheet1"
//	registry_path  = "registry"
//	tags_ini       = "Config/DefaultGameplayTags.ini"
//	max_retries    = 3
//	log_level      = "info"
//	log_format     = "text"
//
// Expressions may read the process environment through the env object. An
// optional .env file is read first and its values take precedence over the
// process environment. Relative paths are resolved against the directory
// holding the pipeline file.
package config
