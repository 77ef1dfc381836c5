// Package validation guards both ends of a factor-construction run.
//
// At run start, Checker verifies dataset integrity: duplicate accounting and
// observation keys, repeated delisting events, disclosure lags shorter than
// the configured minimum, and malformed link windows. Violations are
// integrity errors and abort the run before any computation consumes the
// data.
//
// At run end, Comparator aligns each produced factor series with its
// published reference by date and reports Pearson and Spearman correlation,
// mean and maximum absolute difference, dates whose divergence exceeds the
// tolerance, and coverage-gap counts. The comparison is read-only: neither
// series is corrected, imputed, or reordered.
//
// Fingerprint hashes every input table so a run report pins down exactly
// which dataset produced it.
package validation
