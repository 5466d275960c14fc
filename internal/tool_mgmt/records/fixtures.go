package records

import "time"

// SeedRecords: モックモード用の初期データ。now 基準で日付を組み立てる
func SeedRecords(now time.Time) []Record {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(d).Truncate(time.Second)
		return &t
	}
	return []Record{
		{ID: 1001, Kind: KindKnife, Code: "KN-0001", UserCode: "E1001", UserName: "张伟", Brand: "OSG", Model: "EX-SUS-GDS 6mm",
			Quantity: 2, LendAt: now.Add(-3 * day).Truncate(time.Second), ExpectedReturnAt: at(4 * day), Status: StatusBorrowed, Purpose: "试制加工"},
		{ID: 1002, Kind: KindKnife, Code: "KN-0002", UserCode: "E1001", UserName: "张伟", Brand: "Sandvik", Model: "CNMG 120408",
			Quantity: 10, LendAt: now.Add(-10 * day).Truncate(time.Second), ExpectedReturnAt: at(-2 * day), Status: StatusOverdue},
		{ID: 1003, Kind: KindKnife, Code: "KN-0003", UserCode: "E1001", UserName: "张伟", Brand: "Mitsubishi", Model: "VQ4MVD 10mm",
			Quantity: 1, LendAt: now.Add(-1 * day).Truncate(time.Second), ExpectedReturnAt: at(6 * day), Status: StatusTempStored,
			CabinetCode: "CAB-SHARED-01", LocationCode: "A1-03"},
		{ID: 1004, Kind: KindKnife, Code: "KN-0004", UserCode: "E1002", UserName: "李娜", Brand: "Kennametal", Model: "KC725M",
			Quantity: 4, LendAt: now.Add(-2 * day).Truncate(time.Second), ExpectedReturnAt: at(5 * day), Status: StatusBorrowed},
		{ID: 1005, Kind: KindKnife, Code: "KN-0005", UserCode: "E1002", UserName: "李娜", Brand: "OSG", Model: "A-TAP M8",
			Quantity: 3, LendAt: now.Add(-20 * day).Truncate(time.Second), ActualReturnAt: at(-15 * day), Status: StatusReturned,
			CabinetCode: "CAB-SHARED-01", LocationCode: "A1-01"},
		{ID: 2001, Kind: KindHandle, Code: "HD-0001", UserCode: "E1001", UserName: "张伟", Brand: "BIG KAISER", Model: "BT40-HMC32",
			Quantity: 1, LendAt: now.Add(-5 * day).Truncate(time.Second), ExpectedReturnAt: at(2 * day), Status: StatusBorrowed},
		{ID: 2002, Kind: KindHandle, Code: "HD-0002", UserCode: "E1003", UserName: "王强", Brand: "NIKKEN", Model: "BT40-C25",
			Quantity: 1, LendAt: now.Add(-4 * day).Truncate(time.Second), ExpectedReturnAt: at(3 * day), Status: StatusTempStored,
			CabinetCode: "CAB-PERSONAL-E1003", LocationCode: "P-01"},
	}
}
