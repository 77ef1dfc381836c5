// Package panel assembles the immutable monthly security panel that every
// portfolio sort reads from.
//
// The assembler turns raw monthly security observations into one clean row
// per security per month and one formation snapshot per security per June:
//
//  1. Issuer aggregation: securities sharing an issuer are collapsed each
//     month to the largest security, which carries the issuer-summed market
//     equity. Months where no security of an issuer can be priced are
//     dropped.
//  2. Formation-year alignment: each month is tagged with its formation
//     year, running July through the following June, so a June sort can be
//     matched to the twelve months it governs.
//  3. Weight construction: the value weight of a month is the last market
//     equity known before that month's return accrues, namely the lagged
//     market equity in July, and the July base compounded by ex-dividend
//     returns for the rest of the formation year. A security entering
//     mid-year has no base and carries a missing weight until the next
//     July.
//  4. Formation snapshots: June rows are joined with the security's December
//     market equity from the prior calendar year and with the point-in-time
//     accounting fundamentals available at that June, yielding the
//     book-to-market, profitability and asset-growth characteristics the
//     annual sorts cut on.
//
// The resulting Panel is read-only after assembly and safe for concurrent
// readers. Missing inputs stay missing throughout: no return, weight or
// characteristic is ever zero-filled.
//
// # Usage
//
//	assembler := panel.NewAssembler(aligner)
//	p, err := assembler.Assemble(ctx, adjusted)
//	if err != nil {
//	    return err
//	}
//	for _, month := range p.Months() {
//	    rows := p.RowsAt(month)
//	    // sort, weight, aggregate ...
//	}
package panel
