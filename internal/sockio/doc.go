// Package sockio is Linux-only: AF_QIPCRTR is a Linux kernel address
// family exported by the Qualcomm IPC Router driver, with no equivalent on
// other platforms.
package sockio
