/*
Package staticdefs loads the static resource definitions
original_source's default_config.py names via
static_definitions_directory: a directory of YAML files, each listing
named instances of a resource type, that worker_manager/api/lock.py
resolves missing_resources types against before answering a sync.

Saturn loads the same directory with gopkg.in/yaml.v3 (the teacher's
existing YAML dependency) into a Definitions value the reference
control plane (pkg/controlplane) uses to populate LockResponse.Resources,
the same resolution lock.py performs against its in-process
static_definitions.resources_by_type map.
*/
package staticdefs
