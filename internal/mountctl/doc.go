// Package mountctl mounts and unmounts the target device. Outcomes are
// classified from the mount command's diagnostic output rather than its exit
// status alone, because mount exits non-zero for conditions (already mounted)
// that are not failures for this appliance.
package mountctl
