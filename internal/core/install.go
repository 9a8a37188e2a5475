package core

import (
	"path/filepath"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/version"
)

// InstallSpec names the download a caller wants extracted into the cache:
// the IP name and version request a download must satisfy, plus the
// checksum the resulting tree is expected to match (spec §6
// install_from_download, §4.D "verify against an expected checksum" when
// one travels with the request; SPEC_FULL's download workflow).
type InstallSpec struct {
	Name     string
	Request  version.Request
	Expected checksum.Sum
}

// InstallFromDownload extracts the download matching spec out of cat's
// downloads population into a checksum-keyed cache slot, verifying the
// extracted tree's checksum against spec.Expected (spec §4.D/§7
// ChecksumMismatch, Scenario 5), and registers the result in cat's
// installations population so a subsequent Resolve can find it without
// re-extracting (spec §6 install_from_download → InstalledIp).
func InstallFromDownload(spec InstallSpec, cat *catalog.Catalog) (*ip.Ip, error) {
	dl, ok := cat.GetDownload(spec.Name, spec.Request)
	if !ok {
		return nil, &diag.MissingDependency{Name: spec.Name, Request: spec.Request.String()}
	}

	destDir := filepath.Join(cat.CacheDir, ip.SlotName(dl.Manifest.Ip.Name, dl.Manifest.Ip.Version, spec.Expected))
	installed, err := ip.FromArchive(dl.Path, destDir, spec.Expected)
	if err != nil {
		return nil, err
	}
	cat.AddInstalled(installed)
	return installed, nil
}
